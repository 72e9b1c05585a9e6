package controllers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/changeentry"
	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/importrun"
	"github.com/talentgrid/gateway/modules/auditlog/presentation/mappers"
	"github.com/talentgrid/gateway/modules/auditlog/presentation/viewmodels"
	"github.com/talentgrid/gateway/modules/auditlog/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/configuration"
	"github.com/talentgrid/gateway/pkg/httpapi"
	"github.com/talentgrid/gateway/pkg/middleware"
)

type importRunsQuery struct {
	EntityType string `form:"entityType"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

type changesQuery struct {
	EntityType string `form:"entityType"`
	EntityID   string `form:"entityId"`
	Action     string `form:"action"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

type AuditController struct {
	app         application.Application
	audit       *services.AuditService
	pageSize    int
	maxPageSize int
	basePath    string
}

// NewAuditController always registers its routes. When the audit store is
// disabled the handlers answer 503 so clients can tell a switched-off
// feature from a wrong URL.
func NewAuditController(app application.Application, enabled bool) application.Controller {
	conf := configuration.Use()
	controller := &AuditController{
		app:         app,
		pageSize:    conf.PageSize,
		maxPageSize: conf.MaxPageSize,
		basePath:    "/api/admin/audit",
	}
	if enabled {
		controller.audit = app.Service(services.AuditService{}).(*services.AuditService)
	}
	return controller
}

func (c *AuditController) Key() string {
	return c.basePath
}

func (c *AuditController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuthToken())

	router.HandleFunc("/import-runs", c.ImportRuns).Methods(http.MethodGet)
	router.HandleFunc("/import-runs/{id}", c.ImportRun).Methods(http.MethodGet)
	router.HandleFunc("/changes", c.Changes).Methods(http.MethodGet)
}

func (c *AuditController) ImportRuns(w http.ResponseWriter, r *http.Request) {
	if c.disabled(w) {
		return
	}

	dto, err := composables.UseQuery(&importRunsQuery{}, r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	page, limit, offset := c.pageWindow(dto.Page, dto.Limit)

	ctx := composables.WithPool(r.Context(), c.app.DB())
	runs, total, err := c.audit.ListImportRuns(ctx, &importrun.FindParams{
		EntityType: dto.EntityType,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		logRequestError(r, err, "listing import runs failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "Could not load import history")
		return
	}

	items := make([]*viewmodels.ImportRun, 0, len(runs))
	for _, run := range runs {
		items = append(items, mappers.ImportRunToViewModel(run))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    items,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (c *AuditController) ImportRun(w http.ResponseWriter, r *http.Request) {
	if c.disabled(w) {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid import run id")
		return
	}

	ctx := composables.WithPool(r.Context(), c.app.DB())
	run, err := c.audit.GetImportRun(ctx, id)
	if err != nil {
		if errors.Is(err, importrun.ErrNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "Import run not found")
			return
		}
		logRequestError(r, err, "loading import run failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "Could not load import run")
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    mappers.ImportRunToViewModel(run),
	})
}

func (c *AuditController) Changes(w http.ResponseWriter, r *http.Request) {
	if c.disabled(w) {
		return
	}

	dto, err := composables.UseQuery(&changesQuery{}, r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	page, limit, offset := c.pageWindow(dto.Page, dto.Limit)

	ctx := composables.WithPool(r.Context(), c.app.DB())
	entries, total, err := c.audit.ListChanges(ctx, &changeentry.FindParams{
		EntityType: dto.EntityType,
		EntityID:   dto.EntityID,
		Action:     dto.Action,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		logRequestError(r, err, "listing change entries failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "Could not load change log")
		return
	}

	items := make([]*viewmodels.ChangeEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, mappers.ChangeEntryToViewModel(entry))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    items,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (c *AuditController) disabled(w http.ResponseWriter) bool {
	if c.audit != nil {
		return false
	}
	_ = httpapi.WriteError(w, http.StatusServiceUnavailable, "Audit log is disabled")
	return true
}

// pageWindow normalizes one-based page params into a limit/offset window.
func (c *AuditController) pageWindow(page, limit int) (int, int, int) {
	if limit <= 0 {
		limit = c.pageSize
	}
	if limit > c.maxPageSize {
		limit = c.maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, limit, (page - 1) * limit
}
