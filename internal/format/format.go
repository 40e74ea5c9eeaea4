// Package format renders media durations, sizes, and ratios for the
// command-line summary.
package format

import (
	"fmt"
	"math"
	"time"
)

// Seconds formats a media position or length in seconds as HH:MM:SS.s
// or MM:SS.s, with tenths of a second.
func Seconds(s float64) string {
	if math.IsNaN(s) || s < 0 {
		s = 0
	}
	tenths := int64(math.Round(s * 10))
	h := tenths / 36000
	m := tenths / 600 % 60
	sec := float64(tenths%600) / 10
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%04.1f", h, m, sec)
	}
	return fmt.Sprintf("%02d:%04.1f", m, sec)
}

// Elapsed formats wall-clock time for progress lines.
// Examples: "850ms", "12s", "3m05s"
func Elapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dm%02ds", d/time.Minute, (d%time.Minute)/time.Second)
	}
}

// Size formats a size in bytes for human display.
// Uses one decimal for MB and GB, whole KB, bytes otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%d KB", bytes/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

// Percent formats a percentage with one decimal.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
