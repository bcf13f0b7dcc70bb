// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxSimulateTicks bounds simulate_flow so one call stays cheap.
const maxSimulateTicks = 1000

// NewMCPServer initializes and configures the flowtrack MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Flowtrack Attention Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: classify_url ---
	s.AddTool(mcp.NewTool("classify_url",
		mcp.WithDescription("Classify a URL as work, communication, leisure or unknown."),
		mcp.WithString("url", mcp.Description("The URL to classify."), mcp.Required()),
	), h.handleClassifyURL)

	// --- 2. Tool: compute_flow_score ---
	s.AddTool(mcp.NewTool("compute_flow_score",
		mcp.WithDescription("Compute a 0-100 flow score with its breakdown from a metrics snapshot and activity signals."),
		mcp.WithNumber("flow_score_base", mcp.Description("Baseline score on a 0-100 scale."), mcp.Required()),
		mcp.WithNumber("flow_stability", mcp.Description("Stability in [0,1].")),
		mcp.WithNumber("attention_span", mcp.Description("Attention span in [0,1].")),
		mcp.WithNumber("context_switch_rate", mcp.Description("Context-switch rate in [0,1].")),
		mcp.WithNumber("mental_fatigue", mcp.Description("Mental fatigue in [0,1].")),
		mcp.WithString("observed_state", mcp.Description("Observed cognitive state."), mcp.Enum("creative", "focus", "recovery")),
		mcp.WithString("target_mode", mcp.Description("Target mode. Defaults to the configured target."), mcp.Enum("creative", "focus", "recovery")),
		mcp.WithNumber("tab_switches_per_min", mcp.Description("Tab switches per minute.")),
		mcp.WithNumber("window_ms", mcp.Description("Activity window length in milliseconds.")),
		mcp.WithNumber("leisure_ms", mcp.Description("Leisure time within the window.")),
		mcp.WithNumber("communication_ms", mcp.Description("Communication time within the window.")),
		mcp.WithNumber("idle_ms", mcp.Description("Idle time within the window.")),
		mcp.WithNumber("previous", mcp.Description("Previous score, used to compute the trend.")),
	), h.handleComputeFlowScore)

	// --- 3. Tool: simulate_flow ---
	s.AddTool(mcp.NewTool("simulate_flow",
		mcp.WithDescription("Run the deterministic flow simulator and return one result per tick."),
		mcp.WithNumber("ticks", mcp.Description("Number of ticks to simulate."), mcp.Required()),
		mcp.WithNumber("seed", mcp.Description("Simulator seed. Defaults to the configured seed.")),
		mcp.WithString("dwell", mcp.Description("Time spent on each anchor (e.g., '45s').")),
		mcp.WithString("target_mode", mcp.Description("Target mode."), mcp.Enum("creative", "focus", "recovery")),
	), h.handleSimulateFlow)

	// --- 4. Tool: get_event_status ---
	s.AddTool(mcp.NewTool("get_event_status",
		mcp.WithDescription("Report the event store backend, event counts and time range."),
	), h.handleGetEventStatus)

	// --- 5. Tool: get_category_totals ---
	s.AddTool(mcp.NewTool("get_category_totals",
		mcp.WithDescription("Sum tracked time per category over a lookback window."),
		mcp.WithString("since", mcp.Description("Lookback window (e.g., '24h', '168h'). Empty means all events.")),
	), h.handleGetCategoryTotals)

	return s
}

// StartMCPServer starts the flowtrack MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
