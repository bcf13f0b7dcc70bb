package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func (ow *OutWriter) writeScoreResult(report schema.ScoreReport, cfg *contract.Config) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVScore(w, report, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for a single score; use json or csv")
	default:
		return ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreText(w, report, cfg, fmtFloat)
		}, "Wrote text")
	}
	return nil
}

// writeScoreText prints the score line and, with --explain, the breakdown table.
func writeScoreText(w io.Writer, report schema.ScoreReport, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "Flow score: %s (%s), trend %s\n",
		fmtFloat(report.Score), labelFor(report.Score, cfg), signed(fmtFloat, report.Trend)); err != nil {
		return err
	}
	if !cfg.Explain {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Component", "Points"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(schema.AllBreakdownKeys))
	for _, key := range schema.AllBreakdownKeys {
		v := report.Breakdown[key]
		if isPenalty(key) && v != 0 {
			v = -v
		}
		data = append(data, []string{string(key), signed(fmtFloat, v)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeCSVScore(w io.Writer, report schema.ScoreReport, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, []string{"component", "points"}, func(cw *csv.Writer) error {
		rows := [][]string{
			{"score", fmtFloat(report.Score)},
			{"trend", fmtFloat(report.Trend)},
			{"label", report.Label},
		}
		for _, key := range schema.AllBreakdownKeys {
			rows = append(rows, []string{string(key), fmtFloat(report.Breakdown[key])})
		}
		for _, rec := range rows {
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func isPenalty(key schema.BreakdownKey) bool {
	return strings.HasPrefix(string(key), "penalty_")
}

// formatTopPenalties lists the largest non-zero penalties, largest first.
func formatTopPenalties(breakdown map[schema.BreakdownKey]float64, n int, fmtFloat func(float64) string) string {
	type pair struct {
		key schema.BreakdownKey
		val float64
	}
	var penalties []pair
	for _, key := range schema.AllBreakdownKeys {
		if v := breakdown[key]; isPenalty(key) && v > 0 {
			penalties = append(penalties, pair{key, v})
		}
	}
	slices.SortStableFunc(penalties, func(a, b pair) int {
		switch {
		case a.val > b.val:
			return -1
		case a.val < b.val:
			return 1
		default:
			return 0
		}
	})

	parts := make([]string, 0, n)
	for _, p := range penalties[:min(n, len(penalties))] {
		name := strings.TrimPrefix(string(p.key), "penalty_")
		parts = append(parts, fmt.Sprintf("%s -%s", name, fmtFloat(p.val)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
