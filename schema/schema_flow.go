package schema

// HardwareMetrics is the per-tick signal snapshot from hardware or the simulator.
// All ratio fields are normalized to [0,1]; Baseline is on a 0-100 scale.
type HardwareMetrics struct {
	Baseline          float64   `json:"flowScoreBase"`
	Stability         float64   `json:"flowStability"`
	AttentionSpan     float64   `json:"attentionSpan"`
	ContextSwitchRate float64   `json:"contextSwitchRate"`
	MentalFatigue     float64   `json:"mentalFatigue"`
	CognitiveLoad     float64   `json:"cognitiveLoad"`
	NoveltySignal     float64   `json:"noveltySignal"`
	RecoveryNeed      float64   `json:"recoveryNeed"`
	ObservedState     FlowState `json:"observedState"`
}

// ActivitySignals is a rolling-window summary of browsing activity.
type ActivitySignals struct {
	TabSwitchesPerMin float64 `json:"tabSwitchesPerMin"`
	WindowMs          int64   `json:"windowMs"`
	LeisureMs         int64   `json:"leisureMs"`
	CommunicationMs   int64   `json:"communicationMs"`
	IdleMs            int64   `json:"idleMs"`
}

// FlowScoreResult is the output of one scoring pass.
type FlowScoreResult struct {
	Score     float64                  `json:"score"`
	Trend     float64                  `json:"trend"`
	Breakdown map[BreakdownKey]float64 `json:"breakdown"`
}

// TimelinePoint is one sample on the flow timeline.
type TimelinePoint struct {
	Timestamp int64     `json:"timestamp"`
	Value     int       `json:"value"`
	State     FlowState `json:"state"`
}

// FlowEntry marks the start of a new dominant state.
type FlowEntry struct {
	ID          string    `json:"id"`
	State       FlowState `json:"state"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   int64     `json:"startTime"`
}

// Anchor is a hand-authored reference point the simulator cycles through.
type Anchor struct {
	ID                  int       `json:"id" toml:"id"`
	Baseline            float64   `json:"flowScoreBase" toml:"flow_score_base"`
	ObservedState       FlowState `json:"observedState" toml:"observed_state"`
	BrainStateDirection string    `json:"brainStateDirection" toml:"brain_state_direction"`
	Insight             string    `json:"insight" toml:"insight"`
	StabilityLabel      string    `json:"flowStabilityLabel" toml:"flow_stability"`
	AttentionLabel      string    `json:"attentionSpanLabel" toml:"attention_span"`
	SwitchingLabel      string    `json:"contextSwitchingLabel" toml:"context_switching"`
	FatigueLabel        string    `json:"mentalFatigueLabel" toml:"mental_fatigue"`
	HowToUse            []string  `json:"howToUse" toml:"how_to_use"`
	WhatToAvoid         []string  `json:"whatToAvoid" toml:"what_to_avoid"`
	SuggestedNextTask   string    `json:"suggestedNextTask" toml:"suggested_next_task"`
}

// SimulatorOutput is everything one simulator tick produces.
type SimulatorOutput struct {
	Metrics       HardwareMetrics          `json:"metrics"`
	Activity      ActivitySignals          `json:"activity"`
	Score         float64                  `json:"score"`
	Trend         float64                  `json:"trend"`
	Breakdown     map[BreakdownKey]float64 `json:"breakdown"`
	TimelinePoint TimelinePoint            `json:"timelinePoint"`
	EntryStart    *FlowEntry               `json:"entryStart,omitempty"`
	Anchor        Anchor                   `json:"anchor"`
}
