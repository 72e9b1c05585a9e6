package modules

import (
	"github.com/talentgrid/gateway/modules/auditlog"
	"github.com/talentgrid/gateway/modules/crm"
	"github.com/talentgrid/gateway/modules/dataimport"
	"github.com/talentgrid/gateway/pkg/application"
)

// BuiltInModules is the default gateway composition. Order matters: crm
// registers the shared backend client that the other modules fetch.
var BuiltInModules = []application.Module{
	crm.NewModule(),
	dataimport.NewModule(),
	auditlog.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
