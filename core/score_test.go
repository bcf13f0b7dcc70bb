package core

import (
	"testing"

	"github.com/huangsam/flowtrack/schema"
	"github.com/stretchr/testify/assert"
)

func neutralMetrics() schema.HardwareMetrics {
	return schema.HardwareMetrics{
		Baseline:          70,
		Stability:         0.5,
		AttentionSpan:     0.5,
		ContextSwitchRate: 0.3,
		MentalFatigue:     0.3,
		CognitiveLoad:     0.5,
		NoveltySignal:     0.3,
		RecoveryNeed:      0.3,
		ObservedState:     schema.FocusState,
	}
}

func neutralActivity() schema.ActivitySignals {
	return schema.ActivitySignals{
		TabSwitchesPerMin: 2,
		WindowMs:          60000,
		LeisureMs:         3000,
		CommunicationMs:   2000,
		IdleMs:            1000,
	}
}

func TestComputeFlowScore_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		metrics  schema.HardwareMetrics
		activity schema.ActivitySignals
		expected float64
	}{
		{
			name: "best case clamps to max",
			metrics: schema.HardwareMetrics{
				Baseline: 200, Stability: 1, AttentionSpan: 1, ObservedState: schema.FocusState,
			},
			activity: schema.ActivitySignals{WindowMs: 60000},
			expected: 100,
		},
		{
			name: "worst case clamps to zero",
			metrics: schema.HardwareMetrics{
				Baseline: -50, ContextSwitchRate: 1, MentalFatigue: 1, ObservedState: schema.RecoveryState,
			},
			activity: schema.ActivitySignals{
				TabSwitchesPerMin: 50, WindowMs: 60000, LeisureMs: 60000, CommunicationMs: 60000, IdleMs: 60000,
			},
			expected: 0,
		},
		{
			name:     "zero window does not divide by zero",
			metrics:  schema.HardwareMetrics{Baseline: 50},
			activity: schema.ActivitySignals{},
			expected: 50,
		},
		{
			name:     "out of range ratios are clamped",
			metrics:  schema.HardwareMetrics{Baseline: 50, ObservedState: schema.CreativeState},
			activity: schema.ActivitySignals{WindowMs: 1000, IdleMs: 5000},
			expected: 30, // full idle penalty only
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeFlowScore(tt.metrics, tt.activity, schema.FocusState, nil)
			assert.InDelta(t, tt.expected, res.Score, 1e-9)
			assert.GreaterOrEqual(t, res.Score, 0.0)
			assert.LessOrEqual(t, res.Score, 100.0)
		})
	}
}

func TestComputeFlowScore_Breakdown(t *testing.T) {
	res := ComputeFlowScore(neutralMetrics(), neutralActivity(), schema.FocusState, nil)

	assert.Len(t, res.Breakdown, len(schema.AllBreakdownKeys))
	for _, key := range schema.AllBreakdownKeys {
		_, ok := res.Breakdown[key]
		assert.True(t, ok, "missing breakdown key %s", key)
	}

	b := res.Breakdown
	assert.InDelta(t, 70, b[schema.BreakdownBaseline], 1e-9)
	assert.InDelta(t, 2.5, b[schema.BreakdownBonusAttention], 1e-9)
	assert.InDelta(t, 2.5, b[schema.BreakdownBonusAlignment], 1e-9)
	assert.InDelta(t, 0.2*8+0.3*6, b[schema.BreakdownPenaltyContextSwitching], 1e-9)
	assert.InDelta(t, 0.05*15+(2000.0/60000)*6, b[schema.BreakdownPenaltyLeisure], 1e-9)
	assert.InDelta(t, (1000.0/60000)*20, b[schema.BreakdownPenaltyIdle], 1e-9)
	assert.InDelta(t, 3, b[schema.BreakdownPenaltyFatigue], 1e-9)

	// The unclamped score is the sum of its parts.
	sum := b[schema.BreakdownBaseline] + b[schema.BreakdownBonusAttention] + b[schema.BreakdownBonusAlignment] -
		b[schema.BreakdownPenaltyContextSwitching] - b[schema.BreakdownPenaltyLeisure] -
		b[schema.BreakdownPenaltyIdle] - b[schema.BreakdownPenaltyFatigue]
	assert.InDelta(t, sum, res.Score, 1e-9)
}

func TestComputeFlowScore_Monotonic(t *testing.T) {
	t.Run("tab switches", func(t *testing.T) {
		prev := 101.0
		for _, rate := range []float64{0, 1, 2, 4, 6, 8, 10} {
			a := neutralActivity()
			a.TabSwitchesPerMin = rate
			score := ComputeFlowScore(neutralMetrics(), a, schema.FocusState, nil).Score
			assert.Less(t, score, prev, "rate %v", rate)
			prev = score
		}
	})

	t.Run("context switch rate", func(t *testing.T) {
		prev := 101.0
		for _, rate := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1} {
			m := neutralMetrics()
			m.ContextSwitchRate = rate
			score := ComputeFlowScore(m, neutralActivity(), schema.FocusState, nil).Score
			assert.Less(t, score, prev, "rate %v", rate)
			prev = score
		}
	})

	t.Run("saturates past max tab switches", func(t *testing.T) {
		a := neutralActivity()
		a.TabSwitchesPerMin = maxTabSwitches
		atMax := ComputeFlowScore(neutralMetrics(), a, schema.FocusState, nil).Score
		a.TabSwitchesPerMin = 3 * maxTabSwitches
		assert.InDelta(t, atMax, ComputeFlowScore(neutralMetrics(), a, schema.FocusState, nil).Score, 1e-9)
	})
}

func TestComputeFlowScore_Alignment(t *testing.T) {
	m := neutralMetrics()
	m.ObservedState = schema.CreativeState

	aligned := ComputeFlowScore(m, neutralActivity(), schema.CreativeState, nil)
	misaligned := ComputeFlowScore(m, neutralActivity(), schema.FocusState, nil)

	assert.Greater(t, aligned.Score, misaligned.Score)
	assert.Zero(t, misaligned.Breakdown[schema.BreakdownBonusAlignment])

	// Zero stability removes the alignment bonus.
	m.Stability = 0
	assert.Zero(t, ComputeFlowScore(m, neutralActivity(), schema.CreativeState, nil).Breakdown[schema.BreakdownBonusAlignment])
}

func TestComputeFlowScore_Trend(t *testing.T) {
	m := schema.HardwareMetrics{Baseline: 60}
	a := schema.ActivitySignals{WindowMs: 60000}

	assert.Zero(t, ComputeFlowScore(m, a, schema.FocusState, nil).Trend)

	prev := 50.0
	assert.InDelta(t, 10, ComputeFlowScore(m, a, schema.FocusState, &prev).Trend, 1e-9)

	prev = 75.0
	assert.InDelta(t, -15, ComputeFlowScore(m, a, schema.FocusState, &prev).Trend, 1e-9)

	prev = 500
	assert.InDelta(t, -100, ComputeFlowScore(m, a, schema.FocusState, &prev).Trend, 1e-9)
}

func TestComputeFlowScore_Pure(t *testing.T) {
	m, a := neutralMetrics(), neutralActivity()
	first := ComputeFlowScore(m, a, schema.FocusState, nil)
	second := ComputeFlowScore(m, a, schema.FocusState, nil)
	assert.Equal(t, first, second)
}

// BenchmarkComputeFlowScore benchmarks a single score computation.
func BenchmarkComputeFlowScore(b *testing.B) {
	m, a := neutralMetrics(), neutralActivity()
	prev := 60.0
	for b.Loop() {
		ComputeFlowScore(m, a, schema.FocusState, &prev)
	}
}
