// Package outwriter renders activity events, category totals, flow scores and
// simulator timelines as tables, CSV, JSON or Parquet.
package outwriter

import (
	"io"
	"os"
	"time"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// Stdout and Stderr default to the process streams.
type OutWriter struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{Stdout: os.Stdout, Stderr: os.Stderr}
}

// WriteEvents prints activity events using the configured output format.
func (ow *OutWriter) WriteEvents(events []schema.ActivityEvent, cfg *contract.Config, duration time.Duration) error {
	return ow.writeEventResults(events, cfg, duration)
}

// WriteTotals prints per-category totals using the configured output format.
func (ow *OutWriter) WriteTotals(totals []schema.CategoryTotal, cfg *contract.Config, duration time.Duration) error {
	return ow.writeTotalResults(schema.EnrichTotals(totals), cfg, duration)
}

// WriteScore prints one flow score result and, with --explain, its breakdown.
func (ow *OutWriter) WriteScore(result schema.FlowScoreResult, cfg *contract.Config) error {
	return ow.writeScoreResult(schema.EnrichScore(result), cfg)
}

// WriteSimulation prints a simulated flow timeline.
func (ow *OutWriter) WriteSimulation(outputs []schema.SimulatorOutput, cfg *contract.Config) error {
	return ow.writeSimulationResults(outputs, cfg)
}

// GetMaxTableURLWidth calculates the maximum width for URLs in the events
// table based on terminal width.
func GetMaxTableURLWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // CI and pipes
		} else {
			termWidth = detected
		}
	}

	// ID + Start + Duration + Category + Type + Session, with borders
	baseWidth := 90

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 80 {
		return 80
	}
	return available
}
