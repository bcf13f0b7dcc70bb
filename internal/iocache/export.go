package iocache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/parquet"
	"github.com/huangsam/flowtrack/schema"
)

// ExecuteEventsExport exports the events and category totals in [from, to)
// to two Parquet files derived from outputFile.
func ExecuteEventsExport(ctx context.Context, w io.Writer, store contract.EventStore, outputFile string, from, to int64) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get event status: %w", err)
	}
	if status.TotalEvents == 0 {
		return errors.New("no activity events found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total events: %d\n", status.TotalEvents)

	events, err := store.Range(ctx, from, to, 0)
	if err != nil {
		return fmt.Errorf("failed to retrieve activity events: %w", err)
	}
	totals, err := store.TotalsByCategory(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to retrieve category totals: %w", err)
	}

	eventsFile := outputFile + ".activity_events.parquet"
	if err := parquet.WriteEventsParquet(parquet.ConvertEvents(events), eventsFile); err != nil {
		return fmt.Errorf("failed to write activity events: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d activity events to: %s\n", len(events), eventsFile)

	totalsFile := outputFile + ".category_totals.parquet"
	rows := parquet.ConvertTotals(schema.EnrichTotals(totals))
	if err := parquet.WriteTotalsParquet(rows, totalsFile); err != nil {
		return fmt.Errorf("failed to write category totals: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d category totals to: %s\n", len(rows), totalsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Apache Arrow.")
	return nil
}
