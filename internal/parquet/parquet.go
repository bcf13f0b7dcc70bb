// Package parquet provides data structures and functions for exporting flowtrack
// activity data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/flowtrack/schema"
	"github.com/parquet-go/parquet-go"
)

// ActivityEvent maps to the flowtrack_activity_events database table.
type ActivityEvent struct {
	// ID is the autoincrement event id
	ID int64 `parquet:"id,snappy"`

	// TsStart is when the segment started
	TsStart time.Time `parquet:"ts_start,snappy"`

	// TsEnd is when the segment ended (nullable for open-ended events)
	TsEnd *time.Time `parquet:"ts_end,optional,snappy"`

	// DurationMs is TsEnd - TsStart in milliseconds (nullable)
	DurationMs *int64 `parquet:"duration_ms,optional,snappy"`

	URL      *string `parquet:"url,optional,snappy"`
	Hostname *string `parquet:"hostname,optional,snappy"`
	Category string  `parquet:"category,snappy"`
	TabID    *int32  `parquet:"tab_id,optional,snappy"`
	WindowID *int32  `parquet:"window_id,optional,snappy"`

	// EventType is one of tab_active, tab_nav, tab_closed, window_blur, idle
	EventType string `parquet:"event_type,snappy"`

	// SessionActive records whether a flow session was running
	SessionActive bool `parquet:"session_active,snappy"`
}

// CategoryTotal is one row of aggregated time per category.
type CategoryTotal struct {
	Category   string  `parquet:"category,snappy"`
	Events     int64   `parquet:"events,snappy"`
	DurationMs int64   `parquet:"duration_ms,snappy"`
	Share      float64 `parquet:"share,snappy"`
}

// SimulatorTick is one simulator output flattened for analysis.
type SimulatorTick struct {
	Timestamp     time.Time `parquet:"timestamp,snappy"`
	TargetMode    string    `parquet:"target_mode,snappy"`
	ObservedState string    `parquet:"observed_state,snappy"`
	AnchorID      int32     `parquet:"anchor_id,snappy"`
	Score         float64   `parquet:"score,snappy"`
	Trend         float64   `parquet:"trend,snappy"`
	TabSwitches   float64   `parquet:"tab_switches_per_min,snappy"`
	LeisureMs     int64     `parquet:"leisure_ms,snappy"`
	IdleMs        int64     `parquet:"idle_ms,snappy"`
	EntryTitle    *string   `parquet:"entry_title,optional,snappy"`
}

// writeParquet writes rows of T to outputPath.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteEventsParquet writes activity events to a Parquet file.
func WriteEventsParquet(data []ActivityEvent, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteTotalsParquet writes category totals to a Parquet file.
func WriteTotalsParquet(data []CategoryTotal, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteTicksParquet writes simulator ticks to a Parquet file.
func WriteTicksParquet(data []SimulatorTick, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertEvents converts schema.ActivityEvent records for Parquet export.
func ConvertEvents(events []schema.ActivityEvent) []ActivityEvent {
	result := make([]ActivityEvent, len(events))
	for i, e := range events {
		row := ActivityEvent{
			ID:            e.ID,
			TsStart:       time.UnixMilli(e.TsStart).UTC(),
			DurationMs:    e.DurationMs,
			URL:           optionalString(e.URL),
			Hostname:      optionalString(e.Hostname),
			Category:      string(e.Category),
			TabID:         optionalInt32(e.TabID),
			WindowID:      optionalInt32(e.WindowID),
			EventType:     string(e.EventType),
			SessionActive: e.SessionActive,
		}
		if e.TsEnd != nil {
			end := time.UnixMilli(*e.TsEnd).UTC()
			row.TsEnd = &end
		}
		result[i] = row
	}
	return result
}

// ConvertTotals converts enriched category totals for Parquet export.
func ConvertTotals(totals []schema.EnrichedCategoryTotal) []CategoryTotal {
	result := make([]CategoryTotal, len(totals))
	for i, t := range totals {
		result[i] = CategoryTotal{
			Category:   string(t.Category),
			Events:     t.Events,
			DurationMs: t.DurationMs,
			Share:      t.Share,
		}
	}
	return result
}

// ConvertTicks flattens simulator outputs for Parquet export.
func ConvertTicks(outputs []schema.SimulatorOutput, target schema.FlowState) []SimulatorTick {
	result := make([]SimulatorTick, len(outputs))
	for i, out := range outputs {
		row := SimulatorTick{
			Timestamp:     time.UnixMilli(out.TimelinePoint.Timestamp).UTC(),
			TargetMode:    string(target),
			ObservedState: string(out.Metrics.ObservedState),
			AnchorID:      int32(out.Anchor.ID),
			Score:         out.Score,
			Trend:         out.Trend,
			TabSwitches:   out.Activity.TabSwitchesPerMin,
			LeisureMs:     out.Activity.LeisureMs,
			IdleMs:        out.Activity.IdleMs,
		}
		if out.EntryStart != nil {
			row.EntryTitle = optionalString(out.EntryStart.Title)
		}
		result[i] = row
	}
	return result
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}
