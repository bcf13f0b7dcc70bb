package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/flowtrack/schema"
)

// Color variables for console output.
var (
	DeepColor      = color.New(color.FgGreen, color.Bold) // DeepColor marks sustained flow.
	SteadyColor    = color.New(color.FgCyan)              // SteadyColor marks workable focus.
	DriftingColor  = color.New(color.FgYellow)            // DriftingColor marks wandering attention.
	ScatteredColor = color.New(color.FgRed, color.Bold)   // ScatteredColor marks fragmented attention.
)

// categoryColors colors category names in tables.
var categoryColors = map[schema.Category]*color.Color{
	schema.WorkCategory:          color.New(color.FgBlue),
	schema.CommunicationCategory: color.New(color.FgMagenta),
	schema.LeisureCategory:       color.New(color.FgYellow),
	schema.UnknownCategory:       color.New(color.FgHiBlack),
}

// GetColorLabel returns a colored text label for console output (table).
// It uses schema.GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(score float64) string {
	text := schema.GetPlainLabel(score)

	switch text {
	case schema.DeepValue:
		return DeepColor.Sprint(text)
	case schema.SteadyValue:
		return SteadyColor.Sprint(text)
	case schema.DriftingValue:
		return DriftingColor.Sprint(text)
	default: // "Scattered"
		return ScatteredColor.Sprint(text)
	}
}

// GetColorCategory returns a colored category name for console output.
func GetColorCategory(c schema.Category) string {
	if col, ok := categoryColors[c]; ok {
		return col.Sprint(string(c))
	}
	return string(c)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetEventsDBFilePath returns the path to the SQLite DB file for event storage.
func GetEventsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".flowtrack_events.db"
	}
	return filepath.Join(homeDir, ".flowtrack_events.db")
}

// TruncateText truncates a string to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
