package handlers

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/importrun"
	"github.com/talentgrid/gateway/modules/auditlog/services"
	dataimportservices "github.com/talentgrid/gateway/modules/dataimport/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/configuration"
)

type ImportRunEventsHandler struct {
	app     application.Application
	service *services.AuditService
	logger  *logrus.Logger
}

func RegisterImportRunEventHandlers(app application.Application) {
	handler := &ImportRunEventsHandler{
		app:     app,
		service: app.Service(services.AuditService{}).(*services.AuditService),
		logger:  configuration.Use().Logger(),
	}
	app.EventPublisher().Subscribe(handler.onImportCompleted)
}

// onImportCompleted persists one history row per batch. Persistence is best
// effort: a failed audit write must never fail the import that triggered it.
func (h *ImportRunEventsHandler) onImportCompleted(event dataimportservices.ImportCompletedEvent) {
	if h.service == nil || h.app == nil {
		return
	}

	ctx := composables.WithPool(context.Background(), h.app.DB())

	rowErrors := []byte("[]")
	if len(event.Summary.Errors) > 0 {
		if data, err := json.Marshal(event.Summary.Errors); err == nil {
			rowErrors = data
		}
	}

	run := &importrun.ImportRun{
		ID:             event.RunID,
		EntityType:     event.EntityType.String(),
		TotalRows:      event.Summary.TotalRows,
		Successful:     event.Summary.Successful,
		Failed:         event.Summary.Failed,
		SkipDuplicates: event.Options.SkipDuplicates,
		ImportNewOnly:  event.Options.ImportNewOnly,
		UpdateExisting: event.Options.UpdateExisting,
		Errors:         rowErrors,
		Duration:       event.Duration,
		CreatedAt:      event.CompletedAt,
	}

	if err := h.service.RecordImportRun(ctx, run); err != nil {
		h.logger.WithError(err).
			WithField("entity_type", run.EntityType).
			WithField("run_id", run.ID).
			Warn("failed to persist import run")
	}
}
