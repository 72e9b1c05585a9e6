package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pkg/errors"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/eventbus"
)

// ErrInvalidPatch marks a merge-patch document that cannot be applied.
var ErrInvalidPatch = errors.New("invalid merge patch")

// Entity change actions recorded in the audit trail.
const (
	ActionCreate          = "create"
	ActionUpdate          = "update"
	ActionDelete          = "delete"
	ActionArchive         = "archive"
	ActionRestore         = "restore"
	ActionDeleteRequest   = "delete-request"
	ActionTransferRequest = "transfer-request"
)

// EntityChangedEvent is published after a mutating proxy call succeeded.
// Before is only populated when the gateway had to read the record anyway,
// as merge-patch does; subscribers diff whatever is present.
type EntityChangedEvent struct {
	EntityType entitytype.EntityType
	EntityID   string
	Action     string
	Before     json.RawMessage
	After      json.RawMessage
	Actor      string
	OccurredAt time.Time
}

// ProxyService forwards admin CRM traffic to the backend API. Responses pass
// through with the backend's status and body; the gateway only steps in for
// merge-patch, which the backend does not implement.
type ProxyService struct {
	backend   *backend.Client
	publisher eventbus.EventBus
}

func NewProxyService(client *backend.Client, publisher eventbus.EventBus) *ProxyService {
	return &ProxyService{
		backend:   client,
		publisher: publisher,
	}
}

func (s *ProxyService) List(ctx context.Context, et entitytype.EntityType, query url.Values) (int, json.RawMessage, error) {
	return s.backend.Forward(ctx, http.MethodGet, et.Endpoint(), query, nil)
}

func (s *ProxyService) Get(ctx context.Context, et entitytype.EntityType, id string) (int, json.RawMessage, error) {
	return s.backend.Forward(ctx, http.MethodGet, et.Endpoint()+"/"+id, nil, nil)
}

func (s *ProxyService) Create(ctx context.Context, et entitytype.EntityType, body json.RawMessage) (int, json.RawMessage, error) {
	status, resp, err := s.backend.Forward(ctx, http.MethodPost, et.Endpoint(), nil, body)
	if err == nil && succeeded(status) {
		s.publishChange(ctx, et, recordID(resp), ActionCreate, nil, resp)
	}
	return status, resp, err
}

func (s *ProxyService) Update(ctx context.Context, et entitytype.EntityType, id string, body json.RawMessage) (int, json.RawMessage, error) {
	status, resp, err := s.backend.Forward(ctx, http.MethodPut, et.Endpoint()+"/"+id, nil, body)
	if err == nil && succeeded(status) {
		s.publishChange(ctx, et, id, ActionUpdate, nil, resp)
	}
	return status, resp, err
}

// MergePatch emulates PATCH for a backend that only speaks PUT: read the
// current record, apply the RFC 7386 merge document, write the result back.
// A failed read, 404 included, passes through untouched.
func (s *ProxyService) MergePatch(ctx context.Context, et entitytype.EntityType, id string, patch json.RawMessage) (int, json.RawMessage, error) {
	path := et.Endpoint() + "/" + id
	status, current, err := s.backend.Forward(ctx, http.MethodGet, path, nil, nil)
	if err != nil || !succeeded(status) {
		return status, current, err
	}

	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return 0, nil, errors.Wrap(ErrInvalidPatch, err.Error())
	}

	status, resp, err := s.backend.Forward(ctx, http.MethodPut, path, nil, merged)
	if err == nil && succeeded(status) {
		s.publishChange(ctx, et, id, ActionUpdate, current, resp)
	}
	return status, resp, err
}

func (s *ProxyService) Delete(ctx context.Context, et entitytype.EntityType, id string) (int, json.RawMessage, error) {
	status, resp, err := s.backend.Forward(ctx, http.MethodDelete, et.Endpoint()+"/"+id, nil, nil)
	if err == nil && succeeded(status) {
		s.publishChange(ctx, et, id, ActionDelete, nil, resp)
	}
	return status, resp, err
}

// Lifecycle forwards workflow actions: archive, restore, delete-request and
// transfer-request. The backend owns the decision; the gateway only records
// that it happened.
func (s *ProxyService) Lifecycle(ctx context.Context, et entitytype.EntityType, id, action string, body json.RawMessage) (int, json.RawMessage, error) {
	status, resp, err := s.backend.Forward(ctx, http.MethodPost, et.Endpoint()+"/"+id+"/"+action, nil, body)
	if err == nil && succeeded(status) {
		s.publishChange(ctx, et, id, action, nil, resp)
	}
	return status, resp, err
}

// Subresource proxies note and document collections nested under a record.
// Document bodies are metadata only; blob storage lives elsewhere.
func (s *ProxyService) Subresource(ctx context.Context, method string, et entitytype.EntityType, id, name string, query url.Values, body json.RawMessage) (int, json.RawMessage, error) {
	return s.backend.Forward(ctx, method, et.Endpoint()+"/"+id+"/"+name, query, body)
}

// Tasks proxies the tasks board API. Tasks are not an import entity, so they
// bypass the entity registry.
func (s *ProxyService) Tasks(ctx context.Context, method, id string, query url.Values, body json.RawMessage) (int, json.RawMessage, error) {
	path := "/api/tasks"
	if id != "" {
		path += "/" + id
	}
	return s.backend.Forward(ctx, method, path, query, body)
}

func (s *ProxyService) publishChange(ctx context.Context, et entitytype.EntityType, id, action string, before, after json.RawMessage) {
	s.publisher.Publish(EntityChangedEvent{
		EntityType: et,
		EntityID:   id,
		Action:     action,
		Before:     before,
		After:      after,
		Actor:      actorFingerprint(ctx),
		OccurredAt: time.Now(),
	})
}

func succeeded(status int) bool {
	return status >= 200 && status < 300
}

// actorFingerprint is a stable prefix of the session token hash. The audit
// trail must never hold the token itself.
func actorFingerprint(ctx context.Context) string {
	token, err := composables.UseAuthToken(ctx)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:12]
}

// recordID pulls the record id out of a backend response body.
func recordID(body json.RawMessage) string {
	var envelope struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	switch v := envelope.ID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
