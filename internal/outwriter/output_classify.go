package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteClassifications prints URL classifications using the configured output format.
func (ow *OutWriter) WriteClassifications(results []schema.Classification, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, results)
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"url", "hostname", "category"}, func(cw *csv.Writer) error {
				for _, r := range results {
					if err := cw.Write([]string{r.URL, r.Hostname, string(r.Category)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for classify; use json or csv")
	default:
		return ow.withOutput(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"URL", "Hostname", "Category"})
			data := make([][]string, 0, len(results))
			for _, r := range results {
				data = append(data, []string{
					contract.TruncateText(r.URL, GetMaxTableURLWidth(cfg)),
					r.Hostname,
					categoryFor(r.Category, cfg),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}
