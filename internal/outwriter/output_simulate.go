package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/parquet"
	"github.com/huangsam/flowtrack/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func (ow *OutWriter) writeSimulationResults(outputs []schema.SimulatorOutput, cfg *contract.Config) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if outputs == nil {
			outputs = []schema.SimulatorOutput{}
		}
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, outputs)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSimulation(w, outputs, cfg.TargetMode, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := requireParquetFile(cfg); err != nil {
			return err
		}
		if err := parquet.WriteTicksParquet(parquet.ConvertTicks(outputs, cfg.TargetMode), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(ow.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		return ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeSimulationTable(w, outputs, cfg, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// writeSimulationTable renders one row per tick.
func writeSimulationTable(w io.Writer, outputs []schema.SimulatorOutput, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	headers := []string{"Tick", "Time", "Score", "Label", "Trend", "Observed", "Anchor", "Entry"}
	if cfg.Explain {
		headers = append(headers, "Top Penalties")
	}
	table.Header(headers)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var sum float64
	data := make([][]string, 0, len(outputs))
	for i, out := range outputs {
		sum += out.Score
		entry := ""
		if out.EntryStart != nil {
			entry = out.EntryStart.Title
		}
		row := []string{
			strconv.Itoa(i + 1),
			formatClock(out.TimelinePoint.Timestamp),
			fmtFloat(out.Score),
			labelFor(out.Score, cfg),
			signed(fmtFloat, out.Trend),
			string(out.Metrics.ObservedState),
			strconv.Itoa(out.Anchor.ID),
			entry,
		}
		if cfg.Explain {
			row = append(row, formatTopPenalties(out.Breakdown, 2, fmtFloat))
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	avg := 0.0
	if len(outputs) > 0 {
		avg = sum / float64(len(outputs))
	}
	if _, err := fmt.Fprintf(w, "Simulated %d ticks toward %s (average score: %s)\n", len(outputs), cfg.TargetMode, fmtFloat(avg)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Seed %d, dwell %v, tick interval %v\n", cfg.Seed, cfg.Dwell, cfg.TickInterval); err != nil {
		return err
	}
	return nil
}

func writeCSVSimulation(w io.Writer, outputs []schema.SimulatorOutput, target schema.FlowState, fmtFloat func(float64) string) error {
	header := []string{
		"tick",
		"timestamp",
		"target_mode",
		"observed_state",
		"anchor_id",
		"score",
		"trend",
		"label",
		"tab_switches_per_min",
		"leisure_ms",
		"idle_ms",
		"entry_title",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, out := range outputs {
			entry := ""
			if out.EntryStart != nil {
				entry = out.EntryStart.Title
			}
			rec := []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(out.TimelinePoint.Timestamp, 10),
				string(target),
				string(out.Metrics.ObservedState),
				strconv.Itoa(out.Anchor.ID),
				fmtFloat(out.Score),
				fmtFloat(out.Trend),
				schema.GetPlainLabel(out.Score),
				fmtFloat(out.Activity.TabSwitchesPerMin),
				strconv.FormatInt(out.Activity.LeisureMs, 10),
				strconv.FormatInt(out.Activity.IdleMs, 10),
				entry,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
