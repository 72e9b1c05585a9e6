package services_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
	"github.com/talentgrid/gateway/modules/crm/services"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/itf"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []services.EntityChangedEvent
}

func (r *eventRecorder) record(e services.EntityChangedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) Events() []services.EntityChangedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]services.EntityChangedEvent, len(r.events))
	copy(out, r.events)
	return out
}

func newProxyService(t *testing.T, handler http.HandlerFunc) (*services.ProxyService, *itf.Backend, *eventRecorder) {
	t.Helper()
	ats := itf.NewBackend(t).Handle(handler)
	env := itf.NewTestContext().WithBackend(ats).Build(t)

	recorder := &eventRecorder{}
	env.App.EventPublisher().Subscribe(recorder.record)
	env.App.RegisterServices(services.NewProxyService(env.Client, env.App.EventPublisher()))

	return itf.GetService[services.ProxyService](env), ats, recorder
}

func TestMergePatch_ReadsMergesAndWrites(t *testing.T) {
	svc, ats, recorder := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			itf.RespondJSON(w, http.StatusOK, `{"id": "42", "email": "old@co.com", "status": "active", "notes": "keep"}`)
		case http.MethodPut:
			itf.RespondJSON(w, http.StatusOK, `{"id": "42", "email": "old@co.com", "status": "archived"}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	status, body, err := svc.MergePatch(context.Background(), entitytype.Leads, "42",
		json.RawMessage(`{"status": "archived", "notes": null}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"id": "42", "email": "old@co.com", "status": "archived"}`, string(body))

	calls := ats.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, http.MethodGet, calls[0].Method)
	require.Equal(t, "/api/leads/42", calls[0].Path)
	require.Equal(t, http.MethodPut, calls[1].Method)
	require.Equal(t, "/api/leads/42", calls[1].Path)
	require.Equal(t, map[string]any{"id": "42", "email": "old@co.com", "status": "archived"}, calls[1].JSON())
	require.NotContains(t, calls[1].JSON(), "notes", "a null in the merge document removes the field")

	events := recorder.Events()
	require.Len(t, events, 1)
	require.Equal(t, services.ActionUpdate, events[0].Action)
	require.Equal(t, "42", events[0].EntityID)
	require.JSONEq(t, `{"id": "42", "email": "old@co.com", "status": "active", "notes": "keep"}`, string(events[0].Before))
}

func TestMergePatch_FailedReadPassesThrough(t *testing.T) {
	svc, ats, recorder := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusNotFound, `{"message": "Record not found"}`)
	})

	status, body, err := svc.MergePatch(context.Background(), entitytype.Leads, "missing",
		json.RawMessage(`{"status": "archived"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, status)
	require.JSONEq(t, `{"message": "Record not found"}`, string(body))

	require.Len(t, ats.Calls(), 1, "no write after a failed read")
	require.Empty(t, recorder.Events())
}

func TestMergePatch_InvalidPatchDocument(t *testing.T) {
	svc, ats, _ := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `{"id": "42"}`)
	})

	_, _, err := svc.MergePatch(context.Background(), entitytype.Leads, "42",
		json.RawMessage(`not a merge document`))
	require.ErrorIs(t, err, services.ErrInvalidPatch)
	require.Len(t, ats.Calls(), 1)
}

func TestCreate_PublishesChangeEvent(t *testing.T) {
	svc, _, recorder := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusCreated, `{"id": 7, "email": "jane@co.com"}`)
	})

	ctx := composables.WithAuthToken(context.Background(), "secret-token")
	status, _, err := svc.Create(ctx, entitytype.Leads, json.RawMessage(`{"email": "jane@co.com"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)

	events := recorder.Events()
	require.Len(t, events, 1)
	require.Equal(t, services.ActionCreate, events[0].Action)
	require.Equal(t, entitytype.Leads, events[0].EntityType)
	require.Equal(t, "7", events[0].EntityID)

	sum := sha256.Sum256([]byte("secret-token"))
	require.Equal(t, hex.EncodeToString(sum[:])[:12], events[0].Actor)
}

func TestCreate_BackendRejectionPublishesNothing(t *testing.T) {
	svc, _, recorder := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusUnprocessableEntity, `{"message": "email is required"}`)
	})

	status, body, err := svc.Create(context.Background(), entitytype.Leads, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.JSONEq(t, `{"message": "email is required"}`, string(body))
	require.Empty(t, recorder.Events())
}

func TestLifecycle_ForwardsActionPath(t *testing.T) {
	svc, ats, recorder := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `{"id": "42", "status": "archived"}`)
	})

	status, _, err := svc.Lifecycle(context.Background(), entitytype.JobSeekers, "42",
		services.ActionArchive, json.RawMessage(`{"reason": "stale"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	calls := ats.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodPost, calls[0].Method)
	require.Equal(t, "/api/job-seekers/42/archive", calls[0].Path)
	require.Equal(t, map[string]any{"reason": "stale"}, calls[0].JSON())

	events := recorder.Events()
	require.Len(t, events, 1)
	require.Equal(t, services.ActionArchive, events[0].Action)
	require.Equal(t, "42", events[0].EntityID)
}

func TestDelete_PublishesChangeEvent(t *testing.T) {
	svc, _, recorder := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	status, _, err := svc.Delete(context.Background(), entitytype.Leads, "42")
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, status)

	events := recorder.Events()
	require.Len(t, events, 1)
	require.Equal(t, services.ActionDelete, events[0].Action)
	require.Empty(t, events[0].Actor, "no token, no actor fingerprint")
}

func TestTasks_PathConstruction(t *testing.T) {
	svc, ats, _ := newProxyService(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `[]`)
	})

	_, _, err := svc.Tasks(context.Background(), http.MethodGet, "", url.Values{"board": {"pipeline"}}, nil)
	require.NoError(t, err)
	_, _, err = svc.Tasks(context.Background(), http.MethodPut, "9", nil, json.RawMessage(`{"done": true}`))
	require.NoError(t, err)

	calls := ats.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "/api/tasks", calls[0].Path)
	require.Equal(t, "pipeline", calls[0].Query.Get("board"))
	require.Equal(t, "/api/tasks/9", calls[1].Path)
	require.Equal(t, map[string]any{"done": true}, calls[1].JSON())
}

func TestProxyTransportFailure(t *testing.T) {
	ats := itf.NewBackend(t)
	client := ats.Client()
	ats.Close()

	bus := itf.QuietBus()
	recorder := &eventRecorder{}
	bus.Subscribe(recorder.record)
	svc := services.NewProxyService(client, bus)

	_, _, err := svc.Create(context.Background(), entitytype.Leads, json.RawMessage(`{"email": "x"}`))
	require.Error(t, err)
	require.Empty(t, recorder.Events())
}
