package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/session"
	"github.com/huangsam/flowtrack/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

// targetFrom parses an optional target_mode argument, falling back to the config.
func (h *toolHandler) targetFrom(request mcp.CallToolRequest) (schema.FlowState, error) {
	raw := request.GetString("target_mode", "")
	if raw == "" {
		if h.baseCfg.TargetMode != "" {
			return h.baseCfg.TargetMode, nil
		}
		return schema.FocusState, nil
	}
	return schema.ParseFlowState(raw)
}

func (h *toolHandler) handleClassifyURL(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	host, _ := core.Hostname(raw)
	return jsonResult(schema.Classification{URL: raw, Hostname: host, Category: core.Classify(raw)}), nil
}

func (h *toolHandler) handleComputeFlowScore(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	base, err := request.RequireFloat("flow_score_base")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := h.targetFrom(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid target_mode: %v", err)), nil
	}
	observed := target
	if raw := request.GetString("observed_state", ""); raw != "" {
		if observed, err = schema.ParseFlowState(raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid observed_state: %v", err)), nil
		}
	}

	m := schema.HardwareMetrics{
		Baseline:          base,
		Stability:         request.GetFloat("flow_stability", 0),
		AttentionSpan:     request.GetFloat("attention_span", 0),
		ContextSwitchRate: request.GetFloat("context_switch_rate", 0),
		MentalFatigue:     request.GetFloat("mental_fatigue", 0),
		ObservedState:     observed,
	}
	a := schema.ActivitySignals{
		TabSwitchesPerMin: request.GetFloat("tab_switches_per_min", 0),
		WindowMs:          int64(request.GetFloat("window_ms", 0)),
		LeisureMs:         int64(request.GetFloat("leisure_ms", 0)),
		CommunicationMs:   int64(request.GetFloat("communication_ms", 0)),
		IdleMs:            int64(request.GetFloat("idle_ms", 0)),
	}

	var previous *float64
	if args := request.GetArguments(); args != nil {
		if _, ok := args["previous"]; ok {
			p := request.GetFloat("previous", 0)
			previous = &p
		}
	}

	result := core.ComputeFlowScore(m, a, target, previous)
	return jsonResult(schema.EnrichScore(result)), nil
}

func (h *toolHandler) handleSimulateFlow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	ticks := request.GetInt("ticks", 0)
	if ticks < 1 || ticks > maxSimulateTicks {
		return mcp.NewToolResultError(fmt.Sprintf("ticks must be between 1 and %d", maxSimulateTicks)), nil
	}
	if args := request.GetArguments(); args != nil {
		if _, ok := args["seed"]; ok {
			cfg.Seed = int64(request.GetInt("seed", 0))
		}
	}
	if raw := request.GetString("dwell", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid dwell %q", raw)), nil
		}
		cfg.Dwell = d
	}
	target, err := h.targetFrom(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid target_mode: %v", err)), nil
	}
	cfg.TargetMode = target

	outputs, err := session.Simulate(cfg, 0, ticks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed: %v", err)), nil
	}
	return jsonResult(outputs), nil
}

func (h *toolHandler) store() (contract.EventStore, error) {
	if h.mgr == nil {
		return nil, fmt.Errorf("event store is not initialized")
	}
	store := h.mgr.GetEventStore()
	if store == nil {
		return nil, fmt.Errorf("event store is not initialized")
	}
	return store, nil
}

func (h *toolHandler) handleGetEventStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := store.GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	return jsonResult(status), nil
}

func (h *toolHandler) handleGetCategoryTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg := h.baseCfg.Clone()
	if raw := request.GetString("since", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid since %q", raw)), nil
		}
		cfg.Since = d
	}

	from, to := cfg.QueryWindow(time.Now())
	totals, err := store.TotalsByCategory(ctx, from, to)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("totals failed: %v", err)), nil
	}
	enriched := schema.EnrichTotals(totals)
	if enriched == nil {
		enriched = []schema.EnrichedCategoryTotal{}
	}
	return jsonResult(enriched), nil
}
