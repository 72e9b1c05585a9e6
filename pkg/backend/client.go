package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/configuration"
	"github.com/talentgrid/gateway/pkg/metrics"
)

var tracer = otel.Tracer("gateway-backend")

// APIError is a non-2xx response from the backend API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Client talks to the backend CRM API on behalf of the admin gateway. The
// session token travels in the request context and is forwarded as a bearer
// token.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	requestIDHeader string
}

func New(conf *configuration.Configuration) (*Client, error) {
	httpClient := &http.Client{
		Timeout: conf.Backend.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        conf.Backend.MaxIdleConns,
			MaxIdleConnsPerHost: conf.Backend.MaxIdleConns,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	client, err := NewClient(conf.Backend.URL, httpClient)
	if err != nil {
		return nil, err
	}
	client.requestIDHeader = conf.RequestIDHeader
	return client, nil
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL: %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:         u,
		httpClient:      httpClient,
		requestIDHeader: "X-Request-ID",
	}, nil
}

// do performs one backend request and reads the whole response. Any status
// code is a successful call here; only transport failures return an error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) (int, []byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	ctx, span := tracer.Start(ctx, "backend."+strings.ToLower(method),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", u.String()),
		),
	)
	defer span.End()

	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	if token, err := composables.UseAuthToken(ctx); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(method, "error").Inc()
		return 0, nil, fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	metrics.BackendRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("http read: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// Forward relays a request and hands back the backend's status and raw body
// so proxy handlers can pass both through unchanged.
func (c *Client) Forward(ctx context.Context, method, path string, query url.Values, body json.RawMessage) (int, json.RawMessage, error) {
	return c.do(ctx, method, path, query, body)
}

// Ping reports whether the backend answers HTTP at all. Any status code
// counts as reachable; only transport failures are an error.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/", nil, nil)
	return err
}

// DoJSON performs a JSON request against the backend and decodes the response
// into out when it is non-nil. Non-2xx responses are returned as *APIError.
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, reqBody any, out any) (int, error) {
	var payload []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return 0, fmt.Errorf("json marshal request: %w", err)
		}
		payload = b
	}

	status, respBody, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return status, err
	}

	if status < 200 || status >= 300 {
		return status, &APIError{
			Status:  status,
			Message: errorMessage(status, respBody),
		}
	}

	if out == nil || len(respBody) == 0 {
		return status, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return status, fmt.Errorf("json unmarshal response: %w", err)
	}
	return status, nil
}

// errorMessage extracts a human-readable message from a backend error body.
func errorMessage(status int, body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if strings.TrimSpace(envelope.Message) != "" {
			return envelope.Message
		}
		if strings.TrimSpace(envelope.Error) != "" {
			return envelope.Error
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return http.StatusText(status)
}

// List fetches a collection. Backends answer either with a bare JSON array or
// with the array wrapped under "data".
func (c *Client) List(ctx context.Context, path string, query url.Values) ([]map[string]any, error) {
	var raw json.RawMessage
	if _, err := c.DoJSON(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeCollection(raw)
}

func decodeCollection(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var enveloped struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &enveloped); err == nil && enveloped.Data != nil {
		return enveloped.Data, nil
	}
	return nil, fmt.Errorf("unexpected collection shape: %s", previewBody(raw))
}

func previewBody(raw []byte) string {
	const max = 120
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func (c *Client) Get(ctx context.Context, path string) (map[string]any, error) {
	var out map[string]any
	if _, err := c.DoJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	var out map[string]any
	if _, err := c.DoJSON(ctx, http.MethodPost, path, nil, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	var out map[string]any
	if _, err := c.DoJSON(ctx, http.MethodPut, path, nil, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.DoJSON(ctx, http.MethodDelete, path, nil, nil, nil)
	return err
}
