package schema

import (
	"fmt"
	"strings"
)

// FormatDurationMs renders a millisecond duration as "1h 05m", "12m 30s" or "45s".
func FormatDurationMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ParseFlowState parses a flow state name (case-insensitive).
func ParseFlowState(s string) (FlowState, error) {
	st := FlowState(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ValidFlowStates[st]; !ok {
		return "", fmt.Errorf("invalid flow state: %q (expected creative, focus or recovery)", s)
	}
	return st, nil
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ValidCategories[c]; !ok {
		return "", fmt.Errorf("invalid category: %q", s)
	}
	return c, nil
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
