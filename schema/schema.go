// Package schema has models and typed constants for all parts of flowtrack.
package schema

// Segment is the currently open span of attention on one tab.
// Timestamps are Unix milliseconds.
type Segment struct {
	TabID    int      `json:"tabId"`
	WindowID int      `json:"windowId"`
	URL      string   `json:"url"`
	Hostname string   `json:"hostname,omitempty"`
	Category Category `json:"category,omitempty"` // empty until classified
	TsStart  int64    `json:"tsStart"`
}

// ActivityEvent is the immutable record of a finalized segment or idle interval.
// When TsEnd is set, DurationMs equals TsEnd - TsStart.
type ActivityEvent struct {
	ID            int64     `json:"id,omitempty"`
	TsStart       int64     `json:"tsStart"`
	TsEnd         *int64    `json:"tsEnd,omitempty"`
	DurationMs    *int64    `json:"durationMs,omitempty"`
	URL           string    `json:"url,omitempty"`
	Hostname      string    `json:"hostname,omitempty"`
	Category      Category  `json:"category"`
	TabID         *int      `json:"tabId,omitempty"`
	WindowID      *int      `json:"windowId,omitempty"`
	EventType     EventType `json:"eventType"`
	SessionActive bool      `json:"sessionActive"`
}

// Duration returns the event duration in milliseconds, or zero when open-ended.
func (e ActivityEvent) Duration() int64 {
	if e.DurationMs == nil {
		return 0
	}
	return *e.DurationMs
}

// CategoryTotal aggregates event durations for one category.
type CategoryTotal struct {
	Category   Category `json:"category"`
	Events     int64    `json:"events"`
	DurationMs int64    `json:"durationMs"`
}

// Tab is what a tab lookup returns.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
}
