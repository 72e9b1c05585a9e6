package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/modules/crm/presentation/controllers"
	"github.com/talentgrid/gateway/modules/crm/services"
	"github.com/talentgrid/gateway/pkg/itf"
)

// proxyRouter mounts both proxy controllers behind the cookie-to-token
// middleware, the way the server mounts them.
func proxyRouter(t *testing.T, env *itf.TestEnvironment) *mux.Router {
	t.Helper()
	env.App.RegisterServices(
		env.Client,
		services.NewProxyService(env.Client, env.App.EventPublisher()),
	)
	return env.Router(
		controllers.NewEntityProxyController(env.App),
		controllers.NewTasksController(env.App),
	)
}

func newProxyRouter(t *testing.T, handler http.HandlerFunc) (*mux.Router, *itf.Backend) {
	t.Helper()
	ats := itf.NewBackend(t).Handle(handler)
	env := itf.NewTestContext().WithBackend(ats).Build(t)
	return proxyRouter(t, env), ats
}

func TestEntityProxy_RequiresAuthToken(t *testing.T) {
	router, ats := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be reached without a token")
	})

	rr := itf.Send(t, router, http.MethodGet, "/api/admin/leads", "", false)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.JSONEq(t, `{"success": false, "message": "Authentication required"}`, rr.Body.String())
	require.Empty(t, ats.Calls())
}

func TestEntityProxy_ForwardsListWithQuery(t *testing.T) {
	router, ats := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `[{"id": "1", "email": "jane@co.com"}]`)
	})

	rr := itf.Send(t, router, http.MethodGet, "/api/admin/leads?status=active&page=2", "", true)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[{"id": "1", "email": "jane@co.com"}]`, rr.Body.String())

	calls := ats.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "/api/leads", calls[0].Path)
	require.Equal(t, "active", calls[0].Query.Get("status"))
	require.Equal(t, "2", calls[0].Query.Get("page"))
}

func TestEntityProxy_ForwardsBackendErrorsVerbatim(t *testing.T) {
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusUnprocessableEntity,
			`{"message": "email is required", "fields": {"email": ["required"]}}`)
	})

	rr := itf.Send(t, router, http.MethodPost, "/api/admin/leads", `{"first_name": "Jane"}`, true)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.JSONEq(t, `{"message": "email is required", "fields": {"email": ["required"]}}`, rr.Body.String(),
		"backend validation bodies pass through unwrapped")
}

func TestEntityProxy_UnknownEntityDoesNotMatch(t *testing.T) {
	router, ats := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {})

	rr := itf.Send(t, router, http.MethodGet, "/api/admin/companies", "", true)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Empty(t, ats.Calls())
}

func TestEntityProxy_BackendDownIs502(t *testing.T) {
	ats := itf.NewBackend(t)
	env := itf.NewTestContext().WithBackend(ats).Build(t)
	router := proxyRouter(t, env)
	ats.Close()

	rr := itf.Send(t, router, http.MethodGet, "/api/admin/leads", "", true)

	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.JSONEq(t, `{"success": false, "message": "Upstream backend unavailable"}`, rr.Body.String())
}

func TestEntityProxy_PatchTranslatesToGetAndPut(t *testing.T) {
	router, ats := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			itf.RespondJSON(w, http.StatusOK, `{"id": "42", "email": "old@co.com", "status": "active"}`)
		case http.MethodPut:
			itf.RespondJSON(w, http.StatusOK, `{"id": "42", "email": "old@co.com", "status": "archived"}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	rr := itf.Send(t, router, http.MethodPatch, "/api/admin/leads/42", `{"status": "archived"}`, true)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"id": "42", "email": "old@co.com", "status": "archived"}`, rr.Body.String())

	calls := ats.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, http.MethodGet, calls[0].Method)
	require.Equal(t, http.MethodPut, calls[1].Method)
	require.JSONEq(t, `{"id": "42", "email": "old@co.com", "status": "archived"}`, string(calls[1].Body))
}

func TestEntityProxy_PatchRejectsBrokenDocument(t *testing.T) {
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `{"id": "42"}`)
	})

	rr := itf.Send(t, router, http.MethodPatch, "/api/admin/leads/42", `{{`, true)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.JSONEq(t, `{"success": false, "message": "Invalid request data"}`, rr.Body.String())
}

func TestEntityProxy_LifecycleRoutes(t *testing.T) {
	router, ats := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `{"id": "42", "status": "archived"}`)
	})

	rr := itf.Send(t, router, http.MethodPost, "/api/admin/job-seekers/42/archive", `{"reason": "stale"}`, true)

	require.Equal(t, http.StatusOK, rr.Code)
	calls := ats.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodPost, calls[0].Method)
	require.Equal(t, "/api/job-seekers/42/archive", calls[0].Path)
	require.JSONEq(t, `{"reason": "stale"}`, string(calls[0].Body))
}

func TestEntityProxy_SubresourceRoutes(t *testing.T) {
	router, ats := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `[]`)
	})

	rr := itf.Send(t, router, http.MethodGet, "/api/admin/leads/42/notes?limit=5", "", true)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = itf.Send(t, router, http.MethodPost, "/api/admin/leads/42/documents", `{"name": "resume.pdf"}`, true)
	require.Equal(t, http.StatusOK, rr.Code)

	calls := ats.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "/api/leads/42/notes", calls[0].Path)
	require.Equal(t, "5", calls[0].Query.Get("limit"))
	require.Equal(t, "/api/leads/42/documents", calls[1].Path)
	require.JSONEq(t, `{"name": "resume.pdf"}`, string(calls[1].Body))
}

func TestTasksRoutes_NotShadowedByEntityPattern(t *testing.T) {
	router, ats := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		itf.RespondJSON(w, http.StatusOK, `[]`)
	})

	rr := itf.Send(t, router, http.MethodGet, "/api/admin/tasks?assignee=me", "", true)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = itf.Send(t, router, http.MethodPut, "/api/admin/tasks/9", `{"done": true}`, true)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = itf.Send(t, router, http.MethodDelete, "/api/admin/tasks/9", "", true)
	require.Equal(t, http.StatusOK, rr.Code)

	calls := ats.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, "/api/tasks", calls[0].Path)
	require.Equal(t, "me", calls[0].Query.Get("assignee"))
	require.Equal(t, "/api/tasks/9", calls[1].Path)
	require.Equal(t, http.MethodPut, calls[1].Method)
	require.Equal(t, http.MethodDelete, calls[2].Method)
}
