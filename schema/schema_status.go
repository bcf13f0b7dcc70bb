package schema

import "time"

// EventStatus represents the status of the event store.
type EventStatus struct {
	Backend         string             `json:"backend"`
	Connected       bool               `json:"connected"`
	TotalEvents     int64              `json:"total_events"`
	LastEventID     int64              `json:"last_event_id"`
	OldestEventTime time.Time          `json:"oldest_event_time"`
	NewestEventTime time.Time          `json:"newest_event_time"`
	CategoryCounts  map[Category]int64 `json:"category_counts"`
}
