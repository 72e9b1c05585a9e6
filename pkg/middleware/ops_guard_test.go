package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/pkg/configuration"
	"github.com/talentgrid/gateway/pkg/middleware"
)

func guardedHandler(t *testing.T, conf *configuration.Configuration) http.Handler {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return middleware.OpsGuard(conf, "server")(next)
}

func productionConf(guard configuration.OpsGuardOptions) *configuration.Configuration {
	return &configuration.Configuration{
		GoAppEnvironment: configuration.Production,
		RealIPHeader:     "X-Real-IP",
		OpsGuard:         guard,
	}
}

func TestOpsGuardHidesDebugWithoutCredentials(t *testing.T) {
	handler := guardedHandler(t, productionConf(configuration.OpsGuardOptions{
		Enabled: true,
		Token:   "s3cret",
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.JSONEq(t, `{"success": false, "message": "Not found"}`, rr.Body.String())
}

func TestOpsGuardAcceptsToken(t *testing.T) {
	handler := guardedHandler(t, productionConf(configuration.OpsGuardOptions{
		Enabled: true,
		Token:   "s3cret",
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil)
	req.Header.Set("X-Ops-Token", "s3cret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestOpsGuardAcceptsBasicAuth(t *testing.T) {
	handler := guardedHandler(t, productionConf(configuration.OpsGuardOptions{
		Enabled:       true,
		BasicAuthUser: "ops",
		BasicAuthPass: "hunter2",
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil)
	req.SetBasicAuth("ops", "hunter2")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil)
	req.SetBasicAuth("ops", "wrong")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOpsGuardAcceptsAllowedNetwork(t *testing.T) {
	handler := guardedHandler(t, productionConf(configuration.OpsGuardOptions{
		Enabled:      true,
		AllowedCIDRs: "10.0.0.0/8",
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil)
	req.RemoteAddr = "10.1.2.3:51234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOpsGuardTrustsRealIPHeader(t *testing.T) {
	handler := guardedHandler(t, productionConf(configuration.OpsGuardOptions{
		Enabled:      true,
		AllowedCIDRs: "10.0.0.0/8",
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("X-Real-IP", "10.9.8.7, 203.0.113.9")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestOpsGuardLeavesHealthOpen(t *testing.T) {
	handler := guardedHandler(t, productionConf(configuration.OpsGuardOptions{
		Enabled: true,
		Token:   "s3cret",
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestOpsGuardIgnoresAdminAPI(t *testing.T) {
	handler := guardedHandler(t, productionConf(configuration.OpsGuardOptions{
		Enabled: true,
		Token:   "s3cret",
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestOpsGuardInactiveOutsideProduction(t *testing.T) {
	conf := &configuration.Configuration{
		GoAppEnvironment: "development",
		OpsGuard:         configuration.OpsGuardOptions{Enabled: true, Token: "s3cret"},
	}

	rr := httptest.NewRecorder()
	guardedHandler(t, conf).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
