package crm

import (
	"github.com/talentgrid/gateway/modules/crm/presentation/controllers"
	"github.com/talentgrid/gateway/modules/crm/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/configuration"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

// Register builds the shared backend client. Modules loaded after this one
// fetch it from the service registry.
func (m *Module) Register(app application.Application) error {
	client, err := backend.New(configuration.Use())
	if err != nil {
		return err
	}

	app.RegisterServices(
		client,
		services.NewProxyService(client, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewEntityProxyController(app),
		controllers.NewTasksController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "crm"
}
