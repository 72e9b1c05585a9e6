package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/talentgrid/gateway/modules/crm/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/middleware"
)

// TasksController proxies the tasks board API. Tasks live outside the entity
// registry, so they get their own fixed path.
type TasksController struct {
	app      application.Application
	proxy    *services.ProxyService
	basePath string
}

func NewTasksController(app application.Application) application.Controller {
	return &TasksController{
		app:      app,
		proxy:    app.Service(services.ProxyService{}).(*services.ProxyService),
		basePath: "/api/admin/tasks",
	}
}

func (c *TasksController) Key() string {
	return c.basePath
}

func (c *TasksController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuthToken())
	router.HandleFunc("", c.Collection).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/{id}", c.Item).Methods(http.MethodGet, http.MethodPut, http.MethodDelete)
}

func (c *TasksController) Collection(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if r.Method == http.MethodPost {
		var ok bool
		if payload, ok = readBody(w, r); !ok {
			return
		}
	}
	status, body, err := c.proxy.Tasks(r.Context(), r.Method, "", r.URL.Query(), payload)
	writeProxyResponse(w, r, status, body, err)
}

func (c *TasksController) Item(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if r.Method == http.MethodPut {
		var ok bool
		if payload, ok = readBody(w, r); !ok {
			return
		}
	}
	status, body, err := c.proxy.Tasks(r.Context(), r.Method, mux.Vars(r)["id"], r.URL.Query(), payload)
	writeProxyResponse(w, r, status, body, err)
}
