// Package postgrest is a small client for a REST wrapper over hosted
// Postgres. It exposes the predicate surface the data layer consumes
// (eq/neq/gt/gte/lt/lte/ilike/not/is/in/or/order/range), insert/update/delete
// mutations with representation return, exact-count response metadata and
// stored-procedure calls.
//
// Requests are subject to a fixed client-side timeout (30 seconds by
// default); a timed-out or otherwise failed transport call surfaces as an
// apperr.NetworkError, a failure reported by the backend as an
// apperr.BackendError. Callers never see a raw HTTP error.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/metrics"
)

// DefaultTimeout is the client-side request timeout applied when Config
// leaves Timeout unset.
const DefaultTimeout = 30 * time.Second

// Doer issues a single HTTP request. *http.Client satisfies it; tests swap
// in a recording fake.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the settings needed to reach the backend.
type Config struct {
	// BaseURL is the REST root, e.g. https://example.test/rest/v1.
	BaseURL string

	// APIKey is sent as both the apikey header and a bearer token.
	APIKey string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Doer overrides the HTTP transport. Nil means an *http.Client with
	// the configured timeout.
	Doer Doer

	// Logger receives request diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Client issues requests against the backend REST surface.
type Client struct {
	baseURL string
	apiKey  string
	doer    Doer
	logger  *zap.Logger
}

// New builds a Client from the given configuration.
func New(cfg Config) *Client {
	doer := cfg.Doer
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		doer = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		doer:    doer,
		logger:  logger,
	}
}

// From starts a query builder addressing the given table.
func (c *Client) From(table string) *Builder {
	return &Builder{
		client: c,
		table:  table,
		method: http.MethodGet,
	}
}

// Rpc calls a stored procedure. A nil params value sends an empty object;
// when dest is non-nil the response body is decoded into it.
func (c *Client) Rpc(ctx context.Context, name string, params, dest any) error {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode rpc params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.doer.Do(req)
	if err != nil {
		metrics.BackendRequests.WithLabelValues("rpc/"+name, http.MethodPost, "network_error").Inc()
		return &apperr.NetworkError{Op: "rpc " + name, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.BackendRequests.WithLabelValues("rpc/"+name, http.MethodPost, "network_error").Inc()
		return &apperr.NetworkError{Op: "rpc " + name, Err: err}
	}

	if resp.StatusCode >= 400 {
		metrics.BackendRequests.WithLabelValues("rpc/"+name, http.MethodPost, "backend_error").Inc()
		return c.backendFailure("rpc/"+name, payload)
	}
	metrics.BackendRequests.WithLabelValues("rpc/"+name, http.MethodPost, "ok").Inc()

	if dest == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("decode rpc %s response: %w", name, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) backendFailure(table string, payload []byte) error {
	body := decodeErrorBody(payload)
	c.logger.Error("backend error",
		zap.String("table", table),
		zap.String("code", body.Code),
		zap.String("message", body.Message),
		zap.String("details", body.Details),
		zap.String("hint", body.Hint),
	)
	return apperr.Backend(body.Code, body.Message, body.Details, body.Hint)
}
