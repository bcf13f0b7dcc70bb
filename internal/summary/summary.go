// Package summary posts flow snapshots to the external summary endpoint.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/flowtrack/internal/breaker"
	"github.com/huangsam/flowtrack/internal/metrics"
	"github.com/huangsam/flowtrack/schema"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

var (
	// ErrInvalidRequest is returned before sending a request that fails validation.
	ErrInvalidRequest = errors.New("invalid summary request")

	// ErrInvalidResponse is returned when the endpoint answers with an unexpected body.
	ErrInvalidResponse = errors.New("invalid summary response")
)

// Client posts SummaryRequests, at most one per interval, through a circuit breaker.
type Client struct {
	url      string
	http     *http.Client
	breaker  *breaker.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration

	mu       sync.Mutex
	called   bool
	lastCall int64 // epoch ms of the last allowed request
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records request outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithInterval sets the minimum spacing between requests. Zero disables throttling.
func WithInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

// New returns a client for the endpoint at url. Requests time out after timeout.
func New(url string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:      url,
		http:     &http.Client{Timeout: timeout},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = breaker.New("summary", breaker.DefaultConfig,
			breaker.WithLogger(c.logger),
			breaker.OnStateChange(func(name string, to breaker.State) {
				c.metrics.SetBreakerState(name, float64(to))
			}))
	}
	return c
}

// Allow reports whether a request may be sent at now (epoch ms) and, if so,
// records it. The first call is always allowed.
func (c *Client) Allow(now int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.called && c.interval > 0 && now-c.lastCall <= c.interval.Milliseconds() {
		return false
	}
	c.called = true
	c.lastCall = now
	return true
}

// ValidateRequest checks a request before it is sent.
func ValidateRequest(req schema.SummaryRequest) error {
	if _, ok := schema.ValidFlowStates[req.TargetMode]; !ok {
		return fmt.Errorf("%w: target mode %q", ErrInvalidRequest, req.TargetMode)
	}
	if _, ok := schema.ValidFlowStates[req.ObservedState]; !ok {
		return fmt.Errorf("%w: observed state %q", ErrInvalidRequest, req.ObservedState)
	}
	if math.IsNaN(req.Score) || req.Score < 0 || req.Score > 100 {
		return fmt.Errorf("%w: score %v outside [0, 100]", ErrInvalidRequest, req.Score)
	}
	a := req.Activity
	if a.TabSwitchesPerMin < 0 || a.WindowMs < 0 || a.LeisureMs < 0 || a.CommunicationMs < 0 || a.IdleMs < 0 {
		return fmt.Errorf("%w: negative activity signal", ErrInvalidRequest)
	}
	return nil
}

// Request posts req and returns the validated response.
func (c *Client) Request(ctx context.Context, req schema.SummaryRequest) (schema.SummaryResponse, error) {
	var resp schema.SummaryResponse
	if err := ValidateRequest(req); err != nil {
		return resp, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("marshal summary request: %w", err)
	}

	var raw []byte
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		raw, err = c.post(ctx, body)
		return err
	})
	if err != nil {
		c.metrics.SummaryRequest("error")
		return resp, err
	}

	resp, err = ParseResponse(raw)
	if err != nil {
		c.metrics.SummaryRequest("invalid")
		return resp, err
	}
	c.metrics.SummaryRequest("ok")
	c.logger.Debug("flow summary received", "suggestedMode", resp.SuggestedMode)
	return resp, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build summary request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post summary request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read summary response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("summary endpoint returned status %d", httpResp.StatusCode)
	}
	return raw, nil
}

// ParseResponse decodes and structurally validates a summary response body.
func ParseResponse(raw []byte) (schema.SummaryResponse, error) {
	var resp schema.SummaryResponse

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope == nil {
		return resp, fmt.Errorf("%w: body is not a JSON object", ErrInvalidResponse)
	}
	summaryRaw, ok := envelope["flowSummary"]
	if !ok {
		return resp, fmt.Errorf("%w: missing flowSummary", ErrInvalidResponse)
	}
	var fields map[string]any
	if err := json.Unmarshal(summaryRaw, &fields); err != nil || fields == nil {
		return resp, fmt.Errorf("%w: flowSummary is not an object", ErrInvalidResponse)
	}

	checks := []struct {
		key  string
		want string
		ok   func(any) bool
	}{
		{"flowDuration", "string", isString},
		{"flowHours", "number", isNumber},
		{"flowMinutes", "number", isNumber},
		{"distractionDuration", "string", isString},
		{"distractionSources", "array", isArray},
	}
	for _, check := range checks {
		if !check.ok(fields[check.key]) {
			return resp, fmt.Errorf("%w: flowSummary.%s must be a %s", ErrInvalidResponse, check.key, check.want)
		}
	}

	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return resp, nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}
