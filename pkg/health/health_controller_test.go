package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/health"
)

func TestHealthReportsBackendReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	router := mux.NewRouter()
	health.NewController(client).Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// A 404 from the backend root still proves the backend answers HTTP.
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "ok", "backend": "ok"}`, rec.Body.String())
}

func TestHealthReportsBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := backend.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	srv.Close()

	router := mux.NewRouter()
	health.NewController(client).Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "ok", "backend": "unreachable"}`, rec.Body.String())
}
