package core

import (
	"testing"
	"time"

	"github.com/huangsam/flowtrack/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simTick struct {
	now    int64
	target schema.FlowState
}

// scriptedTicks holds focus for 30s, then switches to creative for 70s.
func scriptedTicks() []simTick {
	ticks := make([]simTick, 0, 20)
	for i := range 20 {
		target := schema.FocusState
		if i >= 6 {
			target = schema.CreativeState
		}
		ticks = append(ticks, simTick{now: int64(i) * 5000, target: target})
	}
	return ticks
}

func TestLCG(t *testing.T) {
	r := newLCG(42)
	assert.Equal(t, uint32(42), r.s)
	v := r.next()
	assert.Equal(t, uint32(1664525*42+1013904223), r.s)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 1.0)

	// Zero seeds fall back to one.
	assert.Equal(t, uint32(1), newLCG(0).s)
	assert.Equal(t, uint32(1), newLCG(1<<32).s)
}

func TestSimulator_Deterministic(t *testing.T) {
	for _, seed := range []int64{1, 42, 7919, -3} {
		a := NewSimulator(seed, 45*time.Second)
		b := NewSimulator(seed, 45*time.Second)
		for _, tk := range scriptedTicks() {
			outA := a.Tick(tk.now, tk.target)
			outB := b.Tick(tk.now, tk.target)
			require.Equal(t, outA.TimelinePoint.Value, outB.TimelinePoint.Value, "seed %d at %d", seed, tk.now)
			require.Equal(t, outA.Metrics.ObservedState, outB.Metrics.ObservedState, "seed %d at %d", seed, tk.now)
			require.Equal(t, outA, outB)
		}
	}
}

func TestSimulator_SeedsDiffer(t *testing.T) {
	a := NewSimulator(1, 45*time.Second)
	b := NewSimulator(2, 45*time.Second)
	same := true
	for _, tk := range scriptedTicks() {
		if a.Tick(tk.now, tk.target).Score != b.Tick(tk.now, tk.target).Score {
			same = false
		}
	}
	assert.False(t, same)
}

func TestSimulator_Seed42Scenario(t *testing.T) {
	sim := NewSimulator(42, 45000*time.Millisecond)

	first := sim.Tick(0, schema.FocusState)
	// Both possible outcomes of the alignment draw are focus for the first anchor.
	assert.Equal(t, schema.FocusState, first.Metrics.ObservedState)
	assert.Equal(t, 88, first.TimelinePoint.Value)
	assert.Zero(t, first.Trend)
	require.NotNil(t, first.EntryStart)
	assert.Equal(t, "0-focus", first.EntryStart.ID)
	assert.Equal(t, "Deep Focus", first.EntryStart.Title)
	assert.Equal(t, "problem-solving - Finalize financial review or debug a system issue", first.EntryStart.Description)
	assert.Equal(t, 1, first.Anchor.ID)

	second := sim.Tick(5000, schema.FocusState)
	assert.Equal(t, schema.FocusState, second.Metrics.ObservedState)
	assert.Equal(t, 89, second.TimelinePoint.Value)
	assert.Nil(t, second.EntryStart, "state did not change")
	assert.InDelta(t, second.Score-first.Score, second.Trend, 1e-9)

	for _, out := range []schema.SimulatorOutput{first, second} {
		assert.GreaterOrEqual(t, out.Score, 0.0)
		assert.LessOrEqual(t, out.Score, 100.0)
		assert.Equal(t, int64(simWindowMs), out.Activity.WindowMs)
	}
}

func TestSimulator_ScriptedStream(t *testing.T) {
	sim := NewSimulator(42, 45*time.Second)

	expected := []struct {
		value    int
		observed schema.FlowState
		entry    bool
		anchorID int
	}{
		{88, schema.FocusState, true, 1},
		{89, schema.FocusState, false, 1},
		{92, schema.FocusState, false, 1},
		{92, schema.FocusState, false, 1},
		{90, schema.FocusState, false, 1},
		{92, schema.FocusState, false, 1},
		{90, schema.CreativeState, true, 1}, // target switched to creative
		{85, schema.FocusState, true, 1},    // drifted back to the anchor's state
		{90, schema.CreativeState, true, 1},
		{69, schema.CreativeState, false, 2}, // dwell elapsed, second anchor
	}

	ticks := scriptedTicks()
	for i, want := range expected {
		out := sim.Tick(ticks[i].now, ticks[i].target)
		assert.Equal(t, want.value, out.TimelinePoint.Value, "tick %d", i)
		assert.Equal(t, want.observed, out.Metrics.ObservedState, "tick %d", i)
		assert.Equal(t, want.observed, out.TimelinePoint.State, "tick %d", i)
		assert.Equal(t, want.entry, out.EntryStart != nil, "tick %d", i)
		assert.Equal(t, want.anchorID, out.Anchor.ID, "tick %d", i)
	}
}

func TestSimulator_EntryDescriptions(t *testing.T) {
	sim := NewSimulator(42, 45*time.Second)
	ticks := scriptedTicks()
	var entries []*schema.FlowEntry
	for _, tk := range ticks[:8] {
		if out := sim.Tick(tk.now, tk.target); out.EntryStart != nil {
			entries = append(entries, out.EntryStart)
		}
	}
	require.Len(t, entries, 3)

	assert.Equal(t, "30000-creative", entries[1].ID)
	assert.Equal(t, "Creative Flow", entries[1].Title)
	assert.Equal(t, "Aligning to creative mode", entries[1].Description)
	assert.Equal(t, int64(30000), entries[1].StartTime)

	assert.Equal(t, "35000-focus", entries[2].ID)
	assert.Contains(t, entries[2].Description, "problem-solving")
}

func TestSimulator_AnchorAdvanceWraps(t *testing.T) {
	anchors := []schema.Anchor{DefaultAnchors[0], DefaultAnchors[2]}
	sim := NewSimulator(9, 10*time.Second, WithAnchors(anchors))

	ids := []int{}
	for now := int64(0); now <= 30000; now += 10000 {
		ids = append(ids, sim.Tick(now, schema.FocusState).Anchor.ID)
	}
	assert.Equal(t, []int{1, 3, 1, 3}, ids)
	assert.Equal(t, 3, sim.Anchor().ID)
}

func TestSimulator_MetricsBounded(t *testing.T) {
	sim := NewSimulator(123, 15*time.Second)
	for i := range 200 {
		target := schema.AllFlowStates[i%len(schema.AllFlowStates)]
		out := sim.Tick(int64(i)*8000, target)
		m := out.Metrics
		for _, v := range []float64{m.Stability, m.AttentionSpan, m.ContextSwitchRate, m.MentalFatigue, m.CognitiveLoad, m.NoveltySignal, m.RecoveryNeed} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.GreaterOrEqual(t, out.Activity.TabSwitchesPerMin, 0.0)
		assert.GreaterOrEqual(t, out.Trend, -100.0)
		assert.LessOrEqual(t, out.Trend, 100.0)
		assert.GreaterOrEqual(t, out.TimelinePoint.Value, 0)
		assert.LessOrEqual(t, out.TimelinePoint.Value, 100)
	}
}

func TestWithAnchors_EmptyKeepsDefaults(t *testing.T) {
	sim := NewSimulator(1, time.Second, WithAnchors(nil))
	assert.Len(t, sim.anchors, len(DefaultAnchors))
}

// BenchmarkSimulatorTick benchmarks one simulator tick.
func BenchmarkSimulatorTick(b *testing.B) {
	sim := NewSimulator(42, 45*time.Second)
	now := int64(0)
	for b.Loop() {
		sim.Tick(now, schema.FocusState)
		now += 8000
	}
}
