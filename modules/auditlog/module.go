package auditlog

import (
	"embed"

	"github.com/talentgrid/gateway/modules/auditlog/handlers"
	"github.com/talentgrid/gateway/modules/auditlog/infrastructure/persistence"
	"github.com/talentgrid/gateway/modules/auditlog/presentation/controllers"
	"github.com/talentgrid/gateway/modules/auditlog/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

// Register wires the audit store only when the feature flag is on and a
// database pool exists. The controller registers either way so disabled
// deployments answer 503 instead of 404.
func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	enabled := conf.AuditLogEnabled && app.DB() != nil

	if enabled {
		app.Migrations().RegisterSchema(migrationFiles, "infrastructure/persistence/schema")
		app.RegisterServices(
			services.NewAuditService(
				persistence.NewImportRunRepository(),
				persistence.NewChangeEntryRepository(),
			),
		)
		handlers.RegisterImportRunEventHandlers(app)
		handlers.RegisterChangeEventHandlers(app)
	}

	app.RegisterControllers(
		controllers.NewAuditController(app, enabled),
	)
	return nil
}

func (m *Module) Name() string {
	return "auditlog"
}
