package itf

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/configuration"
	"github.com/talentgrid/gateway/pkg/eventbus"
	"github.com/talentgrid/gateway/pkg/middleware"
)

// TestContext is a fluent builder for the pieces gateway tests need: an
// application wired to a scripted backend, plus a router for the
// controllers under test.
type TestContext struct {
	backend *Backend
}

// NewTestContext creates a new TestContext builder.
func NewTestContext() *TestContext {
	return &TestContext{}
}

// WithBackend points the environment at a scripted backend. Without one the
// environment has no backend client.
func (tc *TestContext) WithBackend(b *Backend) *TestContext {
	tc.backend = b
	return tc
}

// Build assembles the application. Logs and event delivery stay quiet so
// test output holds only failures.
func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})

	env := &TestEnvironment{App: app}
	if tc.backend != nil {
		env.Backend = tc.backend
		env.Client = tc.backend.Client()
	}
	return env
}

// TestEnvironment contains the assembled test dependencies.
type TestEnvironment struct {
	App     application.Application
	Backend *Backend
	Client  *backend.Client
}

// Service retrieves a service from the application.
func (te *TestEnvironment) Service(service any) any {
	return te.App.Service(service)
}

// GetService retrieves and casts a service from the environment.
func GetService[T any](te *TestEnvironment) *T {
	var zero T
	service := te.App.Service(zero)
	if service == nil {
		return nil
	}
	return service.(*T)
}

// Router mounts the controllers behind the cookie-to-token middleware, the
// way the server mounts them.
func (te *TestEnvironment) Router(controllers ...application.Controller) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestParams())
	for _, c := range controllers {
		c.Register(router)
	}
	return router
}

// QuietBus returns an event bus whose delivery logs go nowhere.
func QuietBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return eventbus.NewEventPublisher(logger)
}

const sessionToken = "session-token"

// Send runs one request through the router. A non-empty body goes out as
// JSON, and withToken attaches the session cookie the admin UI would send.
func Send(tb testing.TB, router *mux.Router, method, target, body string, withToken bool) *httptest.ResponseRecorder {
	tb.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return Do(tb, router, req, withToken)
}

// Do runs a prepared request through the router, optionally attaching the
// session cookie.
func Do(tb testing.TB, router *mux.Router, req *http.Request, withToken bool) *httptest.ResponseRecorder {
	tb.Helper()
	if withToken {
		req.AddCookie(&http.Cookie{
			Name:  configuration.Use().AuthCookieKey,
			Value: sessionToken,
		})
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
