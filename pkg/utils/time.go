package utils

import (
	"fmt"
	"time"
)

// NowRFC3339 returns the current UTC time in RFC3339 format
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SortableTimestamp is RFC3339 with a fixed-width fraction, so values sort lexically
const SortableTimestamp = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTimestamp renders t in UTC using SortableTimestamp
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(SortableTimestamp)
}

// ParseTimestamp accepts RFC3339 with or without fractional seconds
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
