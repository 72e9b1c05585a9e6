package application

import (
	"io/fs"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentgrid/gateway/pkg/eventbus"
)

// Controller mounts a set of routes on the router. Key must be unique per
// controller and stable across restarts.
type Controller interface {
	Register(r *mux.Router)
	Key() string
}

// Module wires a feature's services and controllers into the application.
type Module interface {
	Name() string
	Register(app Application) error
}

// MigrationManager applies the SQL schemas registered by modules.
type MigrationManager interface {
	RegisterSchema(fsys fs.FS, dir string)
	Run() error
	Rollback() error
}

type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Middleware() []mux.MiddlewareFunc
	Controllers() []Controller
	Migrations() MigrationManager
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...any)
	Service(service any) any
	Services() map[reflect.Type]any
}
