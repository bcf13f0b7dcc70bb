package summary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/flowtrack/internal/breaker"
	"github.com/huangsam/flowtrack/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"flowSummary": {
		"flowDuration": "1h 20m",
		"flowHours": 1,
		"flowMinutes": 20,
		"currentTask": "Review PR",
		"distractionDuration": "12m",
		"distractionSources": [{"id": "yt", "name": "YouTube", "iconKey": "youtube", "timeSpentMinutes": 8}]
	},
	"suggestedMode": "recovery",
	"rationale": "Fatigue is rising."
}`

func sampleRequest() schema.SummaryRequest {
	return schema.SummaryRequest{
		SessionActive:     true,
		TargetMode:        schema.FocusState,
		ObservedState:     schema.FocusState,
		Score:             88,
		Direction:         "problem-solving",
		Insight:           "Stable focus.",
		SuggestedNextTask: "Finalize review",
		Activity:          schema.ActivitySignals{TabSwitchesPerMin: 2, WindowMs: 60000, LeisureMs: 1000},
	}
}

func TestRequest_Success(t *testing.T) {
	var gotReq schema.SummaryRequest
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		requestID = r.Header.Get("X-Request-ID")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	resp, err := client.Request(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "1h 20m", resp.FlowSummary.FlowDuration)
	assert.Equal(t, 20.0, resp.FlowSummary.FlowMinutes)
	require.Len(t, resp.FlowSummary.DistractionSources, 1)
	assert.Equal(t, "YouTube", resp.FlowSummary.DistractionSources[0].Name)
	assert.Equal(t, schema.RecoveryState, resp.SuggestedMode)
	assert.Equal(t, sampleRequest(), gotReq)
	assert.Len(t, requestID, 36)
}

func TestRequest_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Invalid model response"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Request(context.Background(), sampleRequest())
	assert.ErrorContains(t, err, "status 502")
}

func TestRequest_InvalidRequestNotSent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	req := sampleRequest()
	req.Score = 120
	_, err := New(srv.URL, time.Second).Request(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, hits.Load())
}

func TestRequest_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := breaker.New("summary", breaker.Config{MaxFailures: 2, ResetTimeout: time.Hour})
	client := New(srv.URL, time.Second, WithBreaker(b))
	for range 2 {
		_, err := client.Request(context.Background(), sampleRequest())
		assert.Error(t, err)
	}
	_, err := client.Request(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRequest_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Request(context.Background(), sampleRequest())
	assert.ErrorContains(t, err, "post summary request")
}

func TestAllow_Throttle(t *testing.T) {
	client := New("http://unused", time.Second, WithInterval(30*time.Second))
	assert.True(t, client.Allow(8_000))
	assert.False(t, client.Allow(16_000))
	assert.False(t, client.Allow(38_000)) // exactly 30s later
	assert.True(t, client.Allow(38_001))
	assert.False(t, client.Allow(40_000))
}

func TestAllow_NoInterval(t *testing.T) {
	client := New("http://unused", time.Second, WithInterval(0))
	assert.True(t, client.Allow(1))
	assert.True(t, client.Allow(1))
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*schema.SummaryRequest)
	}{
		{"bad target", func(r *schema.SummaryRequest) { r.TargetMode = "sleep" }},
		{"bad observed", func(r *schema.SummaryRequest) { r.ObservedState = "" }},
		{"negative score", func(r *schema.SummaryRequest) { r.Score = -1 }},
		{"negative idle", func(r *schema.SummaryRequest) { r.Activity.IdleMs = -5 }},
	}
	assert.NoError(t, ValidateRequest(sampleRequest()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest()
			tt.mutate(&req)
			assert.ErrorIs(t, ValidateRequest(req), ErrInvalidRequest)
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `nope`, "not a JSON object"},
		{"array body", `[]`, "not a JSON object"},
		{"missing summary", `{"rationale":"x"}`, "missing flowSummary"},
		{"summary not object", `{"flowSummary": 3}`, "not an object"},
		{"duration not string", `{"flowSummary":{"flowDuration":1,"flowHours":1,"flowMinutes":1,"distractionDuration":"","distractionSources":[]}}`, "flowDuration"},
		{"hours not number", `{"flowSummary":{"flowDuration":"","flowHours":"1","flowMinutes":1,"distractionDuration":"","distractionSources":[]}}`, "flowHours"},
		{"sources not array", `{"flowSummary":{"flowDuration":"","flowHours":1,"flowMinutes":1,"distractionDuration":"","distractionSources":{}}}`, "distractionSources"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidResponse))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	resp, err := ParseResponse([]byte(validBody))
	require.NoError(t, err)
	assert.Equal(t, "12m", resp.FlowSummary.DistractionDuration)
}
