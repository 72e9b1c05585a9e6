package dataimport

import (
	"github.com/talentgrid/gateway/modules/dataimport/domain/mapping"
	"github.com/talentgrid/gateway/modules/dataimport/presentation/controllers"
	"github.com/talentgrid/gateway/modules/dataimport/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/configuration"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

// Register needs the crm module loaded first: the shared backend client is
// registered there.
func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	registry, err := mapping.LoadWithOverrides(conf.Import.MappingOverridesPath)
	if err != nil {
		return err
	}

	client := app.Service(backend.Client{}).(*backend.Client)
	app.RegisterServices(
		registry,
		services.NewImportService(registry, client, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewDataUploaderController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "dataimport"
}
