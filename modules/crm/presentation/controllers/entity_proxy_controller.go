package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
	"github.com/talentgrid/gateway/modules/crm/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/httpapi"
	"github.com/talentgrid/gateway/pkg/middleware"
)

// EntityProxyController exposes the admin CRUD surface for every CRM entity
// type and relays it to the backend API.
type EntityProxyController struct {
	app      application.Application
	proxy    *services.ProxyService
	basePath string
}

func NewEntityProxyController(app application.Application) application.Controller {
	return &EntityProxyController{
		app:      app,
		proxy:    app.Service(services.ProxyService{}).(*services.ProxyService),
		basePath: "/api/admin",
	}
}

func (c *EntityProxyController) Key() string {
	return c.basePath + "/{entityType}"
}

// entityPattern constrains the route variable to known entity types so this
// controller never shadows sibling /api/admin routes such as the uploader.
func entityPattern() string {
	values := entitytype.All()
	parts := make([]string, len(values))
	for i, et := range values {
		parts[i] = et.String()
	}
	return strings.Join(parts, "|")
}

func (c *EntityProxyController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuthToken())

	entity := "/{entityType:" + entityPattern() + "}"
	router.HandleFunc(entity, c.List).Methods(http.MethodGet)
	router.HandleFunc(entity, c.Create).Methods(http.MethodPost)
	router.HandleFunc(entity+"/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc(entity+"/{id}", c.Update).Methods(http.MethodPut)
	router.HandleFunc(entity+"/{id}", c.Patch).Methods(http.MethodPatch)
	router.HandleFunc(entity+"/{id}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc(entity+"/{id}/{action:archive|restore|delete-request|transfer-request}", c.Lifecycle).
		Methods(http.MethodPost)
	router.HandleFunc(entity+"/{id}/{subresource:notes|documents}", c.Subresource).
		Methods(http.MethodGet, http.MethodPost)
}

// pathEntity trusts the route pattern, which only admits known entity types.
func pathEntity(r *http.Request) entitytype.EntityType {
	return entitytype.EntityType(mux.Vars(r)["entityType"])
}

func (c *EntityProxyController) List(w http.ResponseWriter, r *http.Request) {
	status, body, err := c.proxy.List(r.Context(), pathEntity(r), r.URL.Query())
	writeProxyResponse(w, r, status, body, err)
}

func (c *EntityProxyController) Get(w http.ResponseWriter, r *http.Request) {
	status, body, err := c.proxy.Get(r.Context(), pathEntity(r), mux.Vars(r)["id"])
	writeProxyResponse(w, r, status, body, err)
}

func (c *EntityProxyController) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := readBody(w, r)
	if !ok {
		return
	}
	status, body, err := c.proxy.Create(r.Context(), pathEntity(r), payload)
	writeProxyResponse(w, r, status, body, err)
}

func (c *EntityProxyController) Update(w http.ResponseWriter, r *http.Request) {
	payload, ok := readBody(w, r)
	if !ok {
		return
	}
	status, body, err := c.proxy.Update(r.Context(), pathEntity(r), mux.Vars(r)["id"], payload)
	writeProxyResponse(w, r, status, body, err)
}

func (c *EntityProxyController) Patch(w http.ResponseWriter, r *http.Request) {
	payload, ok := readBody(w, r)
	if !ok {
		return
	}
	status, body, err := c.proxy.MergePatch(r.Context(), pathEntity(r), mux.Vars(r)["id"], payload)
	writeProxyResponse(w, r, status, body, err)
}

func (c *EntityProxyController) Delete(w http.ResponseWriter, r *http.Request) {
	status, body, err := c.proxy.Delete(r.Context(), pathEntity(r), mux.Vars(r)["id"])
	writeProxyResponse(w, r, status, body, err)
}

func (c *EntityProxyController) Lifecycle(w http.ResponseWriter, r *http.Request) {
	payload, ok := readBody(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	status, body, err := c.proxy.Lifecycle(r.Context(), pathEntity(r), vars["id"], vars["action"], payload)
	writeProxyResponse(w, r, status, body, err)
}

func (c *EntityProxyController) Subresource(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if r.Method == http.MethodPost {
		var ok bool
		if payload, ok = readBody(w, r); !ok {
			return
		}
	}
	vars := mux.Vars(r)
	status, body, err := c.proxy.Subresource(
		r.Context(), r.Method, pathEntity(r), vars["id"], vars["subresource"], r.URL.Query(), payload)
	writeProxyResponse(w, r, status, body, err)
}

// readBody drains the request body for forwarding. The bytes go through
// untouched; the backend validates its own payloads.
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logRequestError(r, err, "failed to read request body")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return payload, true
}

// writeProxyResponse forwards the backend's status and body as-is, masking
// transport failures as 502.
func writeProxyResponse(w http.ResponseWriter, r *http.Request, status int, body json.RawMessage, err error) {
	if err != nil {
		if errors.Is(err, services.ErrInvalidPatch) {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid request data")
			return
		}
		logRequestError(r, err, "backend request failed")
		_ = httpapi.WriteError(w, http.StatusBadGateway, "Upstream backend unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}
