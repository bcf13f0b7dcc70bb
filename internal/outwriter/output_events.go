package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/parquet"
	"github.com/huangsam/flowtrack/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeEventResults outputs activity events, dispatching on the output format.
func (ow *OutWriter) writeEventResults(events []schema.ActivityEvent, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONEvents(w, events)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVEvents(w, events)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := requireParquetFile(cfg); err != nil {
			return err
		}
		if err := parquet.WriteEventsParquet(parquet.ConvertEvents(events), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(ow.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		return ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeEventTable(w, events, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeEventTable generates and writes the human-readable events table.
func writeEventTable(w io.Writer, events []schema.ActivityEvent, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Start", "Duration", "Category", "Type", "URL", "Session"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	urlWidth := GetMaxTableURLWidth(cfg)
	var total int64
	data := make([][]string, 0, len(events))
	for _, e := range events {
		total += e.Duration()
		dur := "open"
		if e.DurationMs != nil {
			dur = schema.FormatDurationMs(*e.DurationMs)
		}
		target := e.URL
		if target == "" {
			target = "-"
		}
		data = append(data, []string{
			strconv.FormatInt(e.ID, 10),
			formatClock(e.TsStart),
			dur,
			categoryFor(e.Category, cfg),
			string(e.EventType),
			contract.TruncateText(target, urlWidth),
			strconv.FormatBool(e.SessionActive),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d events (tracked: %s)\n", len(events), schema.FormatDurationMs(total)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Query completed in %v. Events backend: %s\n", duration, cfg.EventsBackend); err != nil {
		return err
	}
	return nil
}

// writeCSVEvents writes one row per event.
func writeCSVEvents(w io.Writer, events []schema.ActivityEvent) error {
	header := []string{
		"id",
		"ts_start",
		"ts_end",
		"duration_ms",
		"url",
		"hostname",
		"category",
		"tab_id",
		"window_id",
		"event_type",
		"session_active",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range events {
			rec := []string{
				strconv.FormatInt(e.ID, 10),
				strconv.FormatInt(e.TsStart, 10),
				formatOptionalInt(e.TsEnd),
				formatOptionalInt(e.DurationMs),
				e.URL,
				e.Hostname,
				string(e.Category),
				formatOptionalInt(e.TabID),
				formatOptionalInt(e.WindowID),
				string(e.EventType),
				strconv.FormatBool(e.SessionActive),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeJSONEvents writes events as an array; an empty result is [] rather than null.
func writeJSONEvents(w io.Writer, events []schema.ActivityEvent) error {
	if events == nil {
		events = []schema.ActivityEvent{}
	}
	return writeJSON(w, events)
}
