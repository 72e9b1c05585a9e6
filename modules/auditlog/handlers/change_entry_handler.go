package handlers

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/changeentry"
	"github.com/talentgrid/gateway/modules/auditlog/services"
	crmservices "github.com/talentgrid/gateway/modules/crm/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/configuration"
)

type ChangeEventsHandler struct {
	app     application.Application
	service *services.AuditService
	logger  *logrus.Logger
}

func RegisterChangeEventHandlers(app application.Application) {
	handler := &ChangeEventsHandler{
		app:     app,
		service: app.Service(services.AuditService{}).(*services.AuditService),
		logger:  configuration.Use().Logger(),
	}
	app.EventPublisher().Subscribe(handler.onEntityChanged)
}

func (h *ChangeEventsHandler) onEntityChanged(event crmservices.EntityChangedEvent) {
	if h.service == nil || h.app == nil {
		return
	}

	ctx := composables.WithPool(context.Background(), h.app.DB())

	entry := &changeentry.ChangeEntry{
		EntityType: event.EntityType.String(),
		EntityID:   event.EntityID,
		Action:     event.Action,
		Diff:       diffStates(event.Before, event.After),
		Snapshot:   event.After,
		Actor:      event.Actor,
		CreatedAt:  event.OccurredAt,
	}

	if err := h.service.RecordChange(ctx, entry); err != nil {
		h.logger.WithError(err).
			WithField("entity_type", entry.EntityType).
			WithField("entity_id", entry.EntityID).
			Warn("failed to persist change entry")
	}
}

// diffStates renders an RFC 6902 patch between the two document states.
// Without a before image there is nothing to diff against; the snapshot
// column still records the resulting state.
func diffStates(before, after json.RawMessage) json.RawMessage {
	if len(before) == 0 || len(after) == 0 {
		return nil
	}
	patch, err := jsondiff.CompareJSON(before, after)
	if err != nil || len(patch) == 0 {
		return nil
	}
	out, err := json.Marshal(patch)
	if err != nil {
		return nil
	}
	return out
}
