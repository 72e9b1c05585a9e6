package itf

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/talentgrid/gateway/pkg/backend"
)

// Call is one request the scripted backend received.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   json.RawMessage
}

// JSON decodes the recorded body as a JSON object. Empty and non-object
// bodies come back nil.
func (c Call) JSON() map[string]any {
	if len(c.Body) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(c.Body, &out); err != nil {
		return nil
	}
	return out
}

// Backend is a scripted stand-in for the ATS API. Tests declare responses
// per method and path, or install a catch-all handler, then assert on the
// calls the backend received. Unscripted requests answer 404.
type Backend struct {
	tb testing.TB

	mu      sync.Mutex
	calls   []Call
	routes  map[string]http.HandlerFunc
	handler http.HandlerFunc

	srv *httptest.Server
}

// NewBackend starts a scripted backend server that shuts down with the test.
func NewBackend(tb testing.TB) *Backend {
	tb.Helper()
	b := &Backend{
		tb:     tb,
		routes: map[string]http.HandlerFunc{},
	}
	b.srv = httptest.NewServer(b)
	tb.Cleanup(b.srv.Close)
	return b
}

// On scripts a static JSON response for one method and path.
func (b *Backend) On(method, path string, status int, body string) *Backend {
	return b.OnFunc(method, path, func(w http.ResponseWriter, _ *http.Request) {
		RespondJSON(w, status, body)
	})
}

// OnFunc scripts a handler for one method and path.
func (b *Backend) OnFunc(method, path string, handler http.HandlerFunc) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = handler
	return b
}

// Handle installs a catch-all handler for requests no scripted route matches.
func (b *Backend) Handle(handler http.HandlerFunc) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   json.RawMessage(raw),
	})
	route, scripted := b.routes[r.Method+" "+r.URL.Path]
	handler := b.handler
	b.mu.Unlock()

	// Recording consumed the body; hand the handler a fresh reader.
	r.Body = io.NopCloser(bytes.NewReader(raw))

	switch {
	case scripted:
		route(w, r)
	case handler != nil:
		handler(w, r)
	default:
		RespondJSON(w, http.StatusNotFound, `{"message": "Record not found"}`)
	}
}

// URL returns the base address of the scripted server.
func (b *Backend) URL() string {
	return b.srv.URL
}

// Close shuts the server down early. Tests that need an unreachable backend
// close it after building the client.
func (b *Backend) Close() {
	b.srv.Close()
}

// Client returns a backend client pointed at the scripted server.
func (b *Backend) Client() *backend.Client {
	b.tb.Helper()
	client, err := backend.NewClient(b.srv.URL, b.srv.Client())
	if err != nil {
		b.tb.Fatal(err)
	}
	return client
}

// Calls returns a copy of the calls received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// RespondJSON writes a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
