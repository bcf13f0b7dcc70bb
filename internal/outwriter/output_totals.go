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

func (ow *OutWriter) writeTotalResults(totals []schema.EnrichedCategoryTotal, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if totals == nil {
			totals = []schema.EnrichedCategoryTotal{}
		}
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, totals)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVTotals(w, totals, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := requireParquetFile(cfg); err != nil {
			return err
		}
		if err := parquet.WriteTotalsParquet(parquet.ConvertTotals(totals), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(ow.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		return ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeTotalsTable(w, totals, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeTotalsTable renders ranked category totals.
func writeTotalsTable(w io.Writer, totals []schema.EnrichedCategoryTotal, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Category", "Events", "Duration", "Share %"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var events, total int64
	data := make([][]string, 0, len(totals))
	for _, t := range totals {
		events += t.Events
		total += t.DurationMs
		data = append(data, []string{
			strconv.Itoa(t.Rank),
			categoryFor(t.Category, cfg),
			strconv.FormatInt(t.Events, 10),
			schema.FormatDurationMs(t.DurationMs),
			fmtFloat(t.Share),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d categories (%d events, tracked: %s)\n", len(totals), events, schema.FormatDurationMs(total)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Query completed in %v. Events backend: %s\n", duration, cfg.EventsBackend); err != nil {
		return err
	}
	return nil
}

func writeCSVTotals(w io.Writer, totals []schema.EnrichedCategoryTotal, fmtFloat func(float64) string) error {
	header := []string{"rank", "category", "events", "duration_ms", "share"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, t := range totals {
			rec := []string{
				strconv.Itoa(t.Rank),
				string(t.Category),
				strconv.FormatInt(t.Events, 10),
				strconv.FormatInt(t.DurationMs, 10),
				fmtFloat(t.Share),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
