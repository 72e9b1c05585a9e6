package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/httpapi"
)

const probeTimeout = 2 * time.Second

// Controller answers the unauthenticated liveness probe. The response stays
// 200 even when the backend is down; a backend outage is not a gateway
// outage, and orchestrators must not restart the gateway over it.
type Controller struct {
	client *backend.Client
	path   string
}

func NewController(client *backend.Client) application.Controller {
	return &Controller{
		client: client,
		path:   "/health",
	}
}

func (c *Controller) Key() string {
	return c.path
}

func (c *Controller) Register(r *mux.Router) {
	r.HandleFunc(c.path, c.Health).Methods(http.MethodGet)
}

func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	backendStatus := "ok"
	if c.client == nil {
		backendStatus = "unreachable"
	} else if err := c.client.Ping(ctx); err != nil {
		backendStatus = "unreachable"
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": backendStatus,
	})
}
