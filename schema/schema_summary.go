package schema

// SummaryRequest is posted to the external flow summary endpoint.
type SummaryRequest struct {
	SessionActive     bool            `json:"sessionActive"`
	TargetMode        FlowState       `json:"targetMode"`
	ObservedState     FlowState       `json:"observedState"`
	Score             float64         `json:"score"`
	Direction         string          `json:"direction"`
	Insight           string          `json:"insight"`
	SuggestedNextTask string          `json:"suggestedNextTask"`
	Activity          ActivitySignals `json:"activity"`
}

// DistractionSource is one entry in a flow summary.
type DistractionSource struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	IconKey          string  `json:"iconKey"`
	TimeSpentMinutes float64 `json:"timeSpentMinutes"`
}

// Reminder is an optional scheduled follow-up.
type Reminder struct {
	FileName      string `json:"fileName"`
	ScheduledTime string `json:"scheduledTime"`
	IsPending     bool   `json:"isPending"`
}

// FlowSummary is the structured summary returned by the endpoint.
type FlowSummary struct {
	FlowDuration        string              `json:"flowDuration"`
	FlowHours           float64             `json:"flowHours"`
	FlowMinutes         float64             `json:"flowMinutes"`
	CurrentTask         string              `json:"currentTask,omitempty"`
	TaskDuration        string              `json:"taskDuration,omitempty"`
	DistractionDuration string              `json:"distractionDuration"`
	DistractionSources  []DistractionSource `json:"distractionSources"`
	Reminder            *Reminder           `json:"reminder,omitempty"`
}

// SummaryResponse is the endpoint's response body.
type SummaryResponse struct {
	FlowSummary   FlowSummary `json:"flowSummary"`
	SuggestedMode FlowState   `json:"suggestedMode,omitempty"`
	Rationale     string      `json:"rationale,omitempty"`
}
