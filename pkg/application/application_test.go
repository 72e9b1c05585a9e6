package application_test

import (
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/eventbus"
)

type fakeService struct {
	name string
}

type fakeController struct {
	key string
}

func (c *fakeController) Key() string            { return c.key }
func (c *fakeController) Register(r *mux.Router) {}

func newApp() application.Application {
	log := logrus.New()
	return application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(log),
		Logger:   log,
	})
}

func TestApplication_ServiceRegistry(t *testing.T) {
	app := newApp()
	svc := &fakeService{name: "importer"}
	app.RegisterServices(svc)

	got := app.Service(fakeService{})
	require.Same(t, svc, got)
	require.Len(t, app.Services(), 1)
}

func TestApplication_ServiceNotFoundPanics(t *testing.T) {
	app := newApp()
	require.Panics(t, func() {
		app.Service(fakeService{})
	})
}

func TestApplication_ControllersDeduplicatedByKey(t *testing.T) {
	app := newApp()
	first := &fakeController{key: "/api/admin/data-uploader"}
	second := &fakeController{key: "/api/admin/data-uploader"}
	other := &fakeController{key: "/health"}

	app.RegisterControllers(first, second, other)

	controllers := app.Controllers()
	require.Len(t, controllers, 2)
	for _, c := range controllers {
		if c.Key() == "/api/admin/data-uploader" {
			require.Same(t, second, c)
		}
	}
}

func TestApplication_MigrationsNoopWithoutPool(t *testing.T) {
	app := newApp()
	require.NoError(t, app.Migrations().Run())
	require.NoError(t, app.Migrations().Rollback())
}
