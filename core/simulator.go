package core

import (
	"fmt"
	"math"
	"time"

	"github.com/huangsam/flowtrack/schema"
)

// Simulator tuning. Ratios are shares of the activity window.
const (
	simWindowMs       = 60000
	alignBase         = 0.65  // alignment probability right after a mode change
	alignGain         = 0.25  // extra probability reached after alignRampMs
	alignRampMs       = 90000 // time for the alignment probability to saturate
	metricNoise       = 0.08  // full width of per-metric noise
	baselineNoise     = 4.0   // full width of baseline noise in score points
	tabSwitchNoise    = 2.0   // full width of tab switch noise
	leisureNoise      = 0.04
	commBaseRatio     = 0.03
	commNoise         = 0.03
	idleNoise         = 0.04
	idleRecoveryRatio = 0.12
	idleDefaultRatio  = 0.03
)

// leisureRatios is the typical leisure share of the window per observed state.
var leisureRatios = map[schema.FlowState]float64{
	schema.FocusState:    0.02,
	schema.CreativeState: 0.06,
	schema.RecoveryState: 0.12,
}

// entryTitles labels timeline entries per observed state.
var entryTitles = map[schema.FlowState]string{
	schema.FocusState:    "Deep Focus",
	schema.CreativeState: "Creative Flow",
	schema.RecoveryState: "Active Recovery",
}

// lcg is a 32-bit linear congruential generator. It is reproducible, not secure.
type lcg struct {
	s uint32
}

func newLCG(seed int64) *lcg {
	s := uint32(seed)
	if s == 0 {
		s = 1
	}
	return &lcg{s: s}
}

// next returns the next value in [0, 1].
func (r *lcg) next() float64 {
	r.s = 1664525*r.s + 1013904223
	return float64(r.s) / 0xffffffff
}

// centered returns a value in [-width/2, width/2].
func (r *lcg) centered(width float64) float64 {
	return (r.next() - 0.5) * width
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithAnchors replaces the default anchors. An empty list keeps the defaults.
func WithAnchors(anchors []schema.Anchor) SimulatorOption {
	return func(s *Simulator) {
		if len(anchors) > 0 {
			s.anchors = anchors
		}
	}
}

// Simulator produces synthetic metrics and activity from a seed and feeds them
// through ComputeFlowScore. It is not safe for concurrent use; callers own one
// instance per session.
type Simulator struct {
	rng     *lcg
	dwellMs int64
	anchors []schema.Anchor

	anchorIdx        int
	anchorStartTs    int64
	started          bool
	lastObserved     schema.FlowState
	prevScore        *float64
	lastModeChangeTs int64
	lastTarget       schema.FlowState
}

// NewSimulator builds a simulator that dwells on each anchor for dwell.
func NewSimulator(seed int64, dwell time.Duration, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		rng:     newLCG(seed),
		dwellMs: dwell.Milliseconds(),
		anchors: DefaultAnchors,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Anchor returns the anchor currently in use.
func (s *Simulator) Anchor() schema.Anchor {
	return s.anchors[s.anchorIdx]
}

// Tick advances the simulator to now (epoch ms) with the user's target mode.
func (s *Simulator) Tick(now int64, target schema.FlowState) schema.SimulatorOutput {
	if !s.started {
		s.started = true
		s.anchorStartTs = now
	}

	if s.lastTarget != "" && s.lastTarget != target {
		s.lastModeChangeTs = now
	}
	s.lastTarget = target

	if now-s.anchorStartTs >= s.dwellMs {
		s.anchorIdx = (s.anchorIdx + 1) % len(s.anchors)
		s.anchorStartTs = now
	}
	anchor := s.anchors[s.anchorIdx]

	// The longer the target is held, the more likely attention follows it.
	since := float64(now - s.lastModeChangeTs)
	alignProb := clamp01(alignBase + clamp01(since/alignRampMs)*alignGain)
	observed := anchor.ObservedState
	if s.rng.next() < alignProb {
		observed = target
	}

	// Draw order is fixed; changing it changes every seeded stream.
	signals := signalsFor(anchor.ObservedState)
	metrics := schema.HardwareMetrics{
		Baseline:          anchor.Baseline + s.rng.centered(baselineNoise),
		Stability:         clamp01(stabilityValue(anchor.StabilityLabel) + s.rng.centered(metricNoise)),
		AttentionSpan:     clamp01(attentionValue(anchor.AttentionLabel) + s.rng.centered(metricNoise)),
		ContextSwitchRate: clamp01(switchingValue(anchor.SwitchingLabel) + s.rng.centered(metricNoise)),
		MentalFatigue:     clamp01(fatigueValue(anchor.FatigueLabel) + s.rng.centered(metricNoise)),
		CognitiveLoad:     clamp01(signals.load + s.rng.centered(metricNoise)),
		NoveltySignal:     clamp01(signals.novelty + s.rng.centered(metricNoise)),
		RecoveryNeed:      clamp01(signals.recovery + s.rng.centered(metricNoise)),
		ObservedState:     observed,
	}

	tabSwitches := max(0, math.Round(metrics.ContextSwitchRate*10+s.rng.centered(tabSwitchNoise)))
	leisureRatio := clamp01(leisureRatios[observed] + s.rng.centered(leisureNoise))
	commRatio := clamp01(commBaseRatio + s.rng.centered(commNoise))
	idleBase := idleDefaultRatio
	if observed == schema.RecoveryState {
		idleBase = idleRecoveryRatio
	}
	idleRatio := clamp01(idleBase + s.rng.centered(idleNoise))

	activity := schema.ActivitySignals{
		TabSwitchesPerMin: tabSwitches,
		WindowMs:          simWindowMs,
		LeisureMs:         int64(math.Round(simWindowMs * leisureRatio)),
		CommunicationMs:   int64(math.Round(simWindowMs * commRatio)),
		IdleMs:            int64(math.Round(simWindowMs * idleRatio)),
	}

	result := ComputeFlowScore(metrics, activity, target, s.prevScore)
	score := result.Score
	s.prevScore = &score

	out := schema.SimulatorOutput{
		Metrics:   metrics,
		Activity:  activity,
		Score:     result.Score,
		Trend:     result.Trend,
		Breakdown: result.Breakdown,
		TimelinePoint: schema.TimelinePoint{
			Timestamp: now,
			Value:     int(math.Round(result.Score)),
			State:     observed,
		},
		Anchor: anchor,
	}

	if observed != s.lastObserved {
		s.lastObserved = observed
		out.EntryStart = newEntry(now, observed, target, anchor)
	}
	return out
}

// newEntry builds the timeline entry that opens when the observed state changes.
func newEntry(now int64, observed, target schema.FlowState, anchor schema.Anchor) *schema.FlowEntry {
	desc := fmt.Sprintf("Aligning to %s mode", target)
	if observed == anchor.ObservedState {
		desc = fmt.Sprintf("%s - %s", anchor.BrainStateDirection, anchor.SuggestedNextTask)
	}
	return &schema.FlowEntry{
		ID:          fmt.Sprintf("%d-%s", now, observed),
		State:       observed,
		Title:       entryTitles[observed],
		Description: desc,
		StartTime:   now,
	}
}
