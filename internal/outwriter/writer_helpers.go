package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
)

// clockFormat renders millisecond timestamps in tables.
const clockFormat = "2006-01-02 15:04:05"

// withOutput opens outputFile (or uses Stdout), runs writer against it and
// reports where the output went.
func (ow *OutWriter) withOutput(outputFile string, writer func(io.Writer) error, successMsg string) error {
	if outputFile == "" {
		return writer(ow.Stdout)
	}
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(ow.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes a header and the rows produced by writeRows,
// then surfaces any buffered write error.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// createFormatters creates the float formatter shared by all output types.
func createFormatters(precision int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}

// requireParquetFile rejects parquet output without a destination file.
func requireParquetFile(cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}
	return nil
}

// formatClock renders a Unix millisecond timestamp in UTC.
func formatClock(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(clockFormat)
}

// formatOptionalInt renders an optional integer, empty when unset.
func formatOptionalInt[T int | int64](v *T) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

// labelFor returns the score label, colored when colors are on.
func labelFor(score float64, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorLabel(score)
	}
	return schema.GetPlainLabel(score)
}

// categoryFor returns the category name, colored when colors are on.
func categoryFor(c schema.Category, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorCategory(c)
	}
	return string(c)
}

// signed renders v with an explicit sign.
func signed(fmtFloat func(float64) string, v float64) string {
	if v > 0 {
		return "+" + fmtFloat(v)
	}
	return fmtFloat(v)
}
