package schema

import "encoding/json"

// MessageType names an inbound or outbound message.
type MessageType string

// Message types exchanged with the extension and downstream consumers.
const (
	PingMessage                MessageType = "PING"
	PongMessage                MessageType = "PONG"
	SessionStartMessage        MessageType = "SESSION_START"
	SessionEndMessage          MessageType = "SESSION_END"
	BrainStateChangeMessage    MessageType = "BRAIN_STATE_CHANGE"
	ActivityLogMessage         MessageType = "ACTIVITY_LOG"
	DeviceConnectMessage       MessageType = "DEVICE_CONNECT"
	DeviceDisconnectMessage    MessageType = "DEVICE_DISCONNECT"
	TabActivatedMessage        MessageType = "TAB_ACTIVATED"
	TabUpdatedMessage          MessageType = "TAB_UPDATED"
	TabRemovedMessage          MessageType = "TAB_REMOVED"
	IdleStateMessage           MessageType = "IDLE_STATE"
	FlowScoreUpdateMessage     MessageType = "FLOW_SCORE_UPDATE"
	TimelineUpdateMessage      MessageType = "TIMELINE_UPDATE"
	FlowEntryAddMessage        MessageType = "FLOW_ENTRY_ADD"
	FlowSummaryUpdateMessage   MessageType = "FLOW_SUMMARY_UPDATE"
	DeviceStatusUpdateMessage  MessageType = "DEVICE_STATUS_UPDATE"
	DeviceBatteryUpdateMessage MessageType = "DEVICE_BATTERY_UPDATE"
)

// Message is the envelope for every inbound control or activity notification.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source,omitempty"`
}

// Response is the structured result returned for every inbound message.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Broadcast is an outbound notification published to downstream consumers.
type Broadcast struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// BrainStatePayload carries a target-mode change.
type BrainStatePayload struct {
	TargetMode FlowState `json:"targetMode"`
}

// ActivityLogPayload carries a pre-segmented activity notification.
type ActivityLogPayload struct {
	URL      string `json:"url"`
	TabID    *int   `json:"tabId,omitempty"`
	WindowID *int   `json:"windowId,omitempty"`
	TsStart  int64  `json:"tsStart,omitempty"`
}

// TabPayload carries tab lifecycle notifications.
type TabPayload struct {
	TabID    *int   `json:"tabId"`
	WindowID int    `json:"windowId,omitempty"`
	URL      string `json:"url,omitempty"`
	Active   bool   `json:"active,omitempty"`
}

// IdleStatePayload carries an idle-state change.
type IdleStatePayload struct {
	State IdleState `json:"state"`
}

// ScoreUpdate is broadcast on every simulator tick.
type ScoreUpdate struct {
	Score int     `json:"score"`
	Trend float64 `json:"trend"`
}

// BatteryStatus is the simulated device battery broadcast.
type BatteryStatus struct {
	Percentage       int  `json:"percentage"`
	IsCharging       bool `json:"isCharging"`
	EstimatedMinutes int  `json:"estimatedMinutes"`
}

// DeviceStatus is broadcast when a device connects.
type DeviceStatus struct {
	Connected bool   `json:"connected"`
	Name      string `json:"name"`
}

// ActivityNotice is broadcast after a segment is finalized.
type ActivityNotice struct {
	URL       string    `json:"url"`
	Category  Category  `json:"category"`
	EventType EventType `json:"eventType"`
	Timestamp int64     `json:"timestamp"`
}

// PongPayload answers a PING.
type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// TimelinePayload wraps a TIMELINE_UPDATE point.
type TimelinePayload struct {
	Point TimelinePoint `json:"point"`
}

// BatteryPayload wraps a DEVICE_BATTERY_UPDATE status.
type BatteryPayload struct {
	Battery BatteryStatus `json:"battery"`
}

// SummaryPayload wraps a FLOW_SUMMARY_UPDATE summary.
type SummaryPayload struct {
	Summary FlowSummary `json:"summary"`
}
