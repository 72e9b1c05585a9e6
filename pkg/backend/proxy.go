package backend

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/httpapi"
	"github.com/talentgrid/gateway/pkg/metrics"
)

// proxiedHeaders are the request headers forwarded to the backend verbatim.
var proxiedHeaders = []string{"Accept", "Content-Type", "Accept-Language", "If-Match", "If-None-Match"}

// Proxy forwards the request to the backend under the given path and relays
// the response back unchanged. Query parameters pass through; the auth cookie
// is translated into a bearer token.
func (c *Client) Proxy(w http.ResponseWriter, r *http.Request, path string) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = r.URL.RawQuery

	ctx, span := tracer.Start(r.Context(), "backend.proxy",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.url", u.String()),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), r.Body)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	for _, name := range proxiedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	if token, err := composables.UseAuthToken(ctx); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(r.Method, "error").Inc()
		span.RecordError(err)
		_ = httpapi.WriteError(w, http.StatusBadGateway, "Backend unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	metrics.BackendRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(resp.StatusCode)).Inc()

	for _, name := range []string{"Content-Type", "Cache-Control", "ETag"} {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
