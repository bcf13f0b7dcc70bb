package schema

// Custom string types for type safety.
type (
	// BreakdownKey represents keys used in flow score breakdowns.
	BreakdownKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// Category is the activity category assigned to a URL.
	Category string

	// EventType tags how an activity event was finalized.
	EventType string

	// FlowState is a cognitive mode, used both as target mode and observed state.
	FlowState string

	// IdleState is the browser idle state.
	IdleState string

	// DatabaseBackend represents the database backend for event storage.
	DatabaseBackend string

	// BroadcastBackend represents a broadcast sink.
	BroadcastBackend string
)

// Breakdown keys used in the scoring logic.
const (
	BreakdownBaseline                BreakdownKey = "baseline"
	BreakdownBonusAttention          BreakdownKey = "bonus_attention"
	BreakdownBonusAlignment          BreakdownKey = "bonus_alignment"
	BreakdownPenaltyContextSwitching BreakdownKey = "penalty_context_switching"
	BreakdownPenaltyLeisure          BreakdownKey = "penalty_leisure"
	BreakdownPenaltyIdle             BreakdownKey = "penalty_idle"
	BreakdownPenaltyFatigue          BreakdownKey = "penalty_fatigue"
)

// AllBreakdownKeys lists breakdown keys in display order.
var AllBreakdownKeys = []BreakdownKey{
	BreakdownBaseline,
	BreakdownBonusAttention,
	BreakdownBonusAlignment,
	BreakdownPenaltyContextSwitching,
	BreakdownPenaltyLeisure,
	BreakdownPenaltyIdle,
	BreakdownPenaltyFatigue,
}

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All activity categories.
const (
	WorkCategory          Category = "work"
	CommunicationCategory Category = "communication"
	LeisureCategory       Category = "leisure"
	UnknownCategory       Category = "unknown"
)

// All event types.
const (
	TabActiveEvent  EventType = "tab_active"
	TabNavEvent     EventType = "tab_nav"
	TabClosedEvent  EventType = "tab_closed"
	WindowBlurEvent EventType = "window_blur"
	IdleEvent       EventType = "idle"
)

// All flow states.
const (
	CreativeState FlowState = "creative"
	FocusState    FlowState = "focus" // default target
	RecoveryState FlowState = "recovery"
)

// All idle states reported by the browser.
const (
	ActiveIdleState IdleState = "active"
	IdleIdleState   IdleState = "idle"
	LockedIdleState IdleState = "locked"
)

// All event store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All broadcast sinks supported.
const (
	LogBroadcast   BroadcastBackend = "log" // default
	KafkaBroadcast BroadcastBackend = "kafka"
	NATSBroadcast  BroadcastBackend = "nats"
)

// AllCategories lists categories in classifier priority order, followed by unknown.
var AllCategories = []Category{WorkCategory, CommunicationCategory, LeisureCategory, UnknownCategory}

// AllFlowStates lists every flow state.
var AllFlowStates = []FlowState{CreativeState, FocusState, RecoveryState}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCategories lists all valid categories.
var ValidCategories = map[Category]struct{}{
	WorkCategory:          {},
	CommunicationCategory: {},
	LeisureCategory:       {},
	UnknownCategory:       {},
}

// ValidEventTypes lists all valid event types.
var ValidEventTypes = map[EventType]struct{}{
	TabActiveEvent:  {},
	TabNavEvent:     {},
	TabClosedEvent:  {},
	WindowBlurEvent: {},
	IdleEvent:       {},
}

// ValidFlowStates lists all valid flow states.
var ValidFlowStates = map[FlowState]struct{}{
	CreativeState: {},
	FocusState:    {},
	RecoveryState: {},
}

// ValidIdleStates lists all valid idle states.
var ValidIdleStates = map[IdleState]struct{}{
	ActiveIdleState: {},
	IdleIdleState:   {},
	LockedIdleState: {},
}

// ValidDatabaseBackends lists all valid event store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidBroadcastBackends lists all valid broadcast sinks.
var ValidBroadcastBackends = map[BroadcastBackend]struct{}{
	LogBroadcast:   {},
	KafkaBroadcast: {},
	NATSBroadcast:  {},
}
