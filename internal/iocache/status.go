package iocache

import (
	"fmt"
	"io"
	"slices"

	"github.com/huangsam/flowtrack/schema"
)

// PrintEventStatus prints event store status information.
func PrintEventStatus(w io.Writer, status schema.EventStatus) {
	_, _ = fmt.Fprintf(w, "Events Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Events: %d\n", status.TotalEvents)
	if status.TotalEvents == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "Last Event ID: %d\n", status.LastEventID)
	_, _ = fmt.Fprintf(w, "Newest Event: %s\n", status.NewestEventTime.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(w, "Oldest Event: %s\n", status.OldestEventTime.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintln(w, "Events by Category:")
	categories := make([]string, 0, len(status.CategoryCounts))
	for c := range status.CategoryCounts {
		categories = append(categories, string(c))
	}
	slices.Sort(categories)
	for _, c := range categories {
		_, _ = fmt.Fprintf(w, "  %s: %d\n", c, status.CategoryCounts[schema.Category(c)])
	}
}
