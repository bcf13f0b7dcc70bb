package core

import (
	"math"

	"github.com/huangsam/flowtrack/schema"
)

// Flow score weights. Bonuses and penalties are in score points.
const (
	wAttention        = 5.0  // attention span bonus
	wAlignment        = 5.0  // observed state matches target, scaled by stability
	wTabSwitches      = 8.0  // tab switches per minute, saturating at maxTabSwitches
	wContextSwitch    = 6.0  // context-switch rate from metrics
	wLeisure          = 15.0 // leisure share of the window
	wCommunication    = 6.0  // communication share of the window
	wIdle             = 20.0 // idle share of the window
	wFatigue          = 10.0 // mental fatigue
	maxTabSwitches    = 10.0 // tab switches per minute beyond this saturate
	maxScore          = 100.0
	maxTrendMagnitude = 100.0
)

// clamp bounds v to [lo, hi]. NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp01 bounds v to [0, 1].
func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// ComputeFlowScore combines a metrics snapshot and activity signals into a bounded
// flow score (0-100) with a trend against previous, if given. It is pure.
func ComputeFlowScore(m schema.HardwareMetrics, a schema.ActivitySignals, target schema.FlowState, previous *float64) schema.FlowScoreResult {
	baseline := clamp(m.Baseline, 0, maxScore)

	// --- Bonuses ---
	bonusAttention := clamp01(m.AttentionSpan) * wAttention
	alignment := 0.0
	if m.ObservedState == target {
		alignment = 1.0
	}
	bonusAlignment := alignment * clamp01(m.Stability) * wAlignment

	// --- Penalties ---
	penaltyContextSwitching := clamp01(a.TabSwitchesPerMin/maxTabSwitches)*wTabSwitches +
		clamp01(m.ContextSwitchRate)*wContextSwitch

	window := float64(max(a.WindowMs, 1))
	leisureRatio := clamp01(float64(a.LeisureMs) / window)
	commRatio := clamp01(float64(a.CommunicationMs) / window)
	idleRatio := clamp01(float64(a.IdleMs) / window)

	penaltyLeisure := leisureRatio*wLeisure + commRatio*wCommunication
	penaltyIdle := idleRatio * wIdle
	penaltyFatigue := clamp01(m.MentalFatigue) * wFatigue

	raw := baseline + bonusAttention + bonusAlignment -
		penaltyContextSwitching - penaltyLeisure - penaltyIdle - penaltyFatigue
	score := clamp(raw, 0, maxScore)

	trend := 0.0
	if previous != nil {
		trend = clamp(score-*previous, -maxTrendMagnitude, maxTrendMagnitude)
	}

	return schema.FlowScoreResult{
		Score: score,
		Trend: trend,
		Breakdown: map[schema.BreakdownKey]float64{
			schema.BreakdownBaseline:                baseline,
			schema.BreakdownBonusAttention:          bonusAttention,
			schema.BreakdownBonusAlignment:          bonusAlignment,
			schema.BreakdownPenaltyContextSwitching: penaltyContextSwitching,
			schema.BreakdownPenaltyLeisure:          penaltyLeisure,
			schema.BreakdownPenaltyIdle:             penaltyIdle,
			schema.BreakdownPenaltyFatigue:          penaltyFatigue,
		},
	}
}
