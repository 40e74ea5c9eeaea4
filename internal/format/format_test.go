package format_test

// Notes:
// - Negative and NaN seconds are clamped to zero because probe failures can
//   surface as zero-length media; other negative inputs are not tested.
// - Large values stay realistic (multi-hour recordings, tens of GB).

import (
	"math"
	"testing"
	"time"

	"github.com/alnah/go-videocut/internal/format"
)

// ---------------------------------------------------------------------------
// TestSeconds - Formats media seconds as MM:SS.s or HH:MM:SS.s
// ---------------------------------------------------------------------------

func TestSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{name: "zero", input: 0, want: "00:00.0"},
		{name: "tenths", input: 2.2, want: "00:02.2"},
		{name: "rounds to tenths", input: 2.26, want: "00:02.3"},
		{name: "rounding carries into minutes", input: 59.96, want: "01:00.0"},
		{name: "minutes", input: 5*60 + 30.5, want: "05:30.5"},
		{name: "boundary: 59:59.9", input: 3599.9, want: "59:59.9"},
		{name: "boundary: exactly 1 hour", input: 3600, want: "01:00:00.0"},
		{name: "hours", input: 2*3600 + 15*60 + 45.25, want: "02:15:45.3"},
		{name: "negative clamps", input: -1, want: "00:00.0"},
		{name: "NaN clamps", input: math.NaN(), want: "00:00.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := format.Seconds(tt.input); got != tt.want {
				t.Errorf("Seconds(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestElapsed - Formats wall-clock time (850ms, 12s, 3m05s)
// ---------------------------------------------------------------------------

func TestElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{name: "zero", input: 0, want: "0ms"},
		{name: "milliseconds", input: 850 * time.Millisecond, want: "850ms"},
		{name: "boundary: 1 second", input: time.Second, want: "1s"},
		{name: "seconds truncate", input: 12*time.Second + 900*time.Millisecond, want: "12s"},
		{name: "boundary: 1 minute", input: time.Minute, want: "1m00s"},
		{name: "minutes pad seconds", input: 3*time.Minute + 5*time.Second, want: "3m05s"},
		{name: "long run", input: 95 * time.Minute, want: "95m00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := format.Elapsed(tt.input); got != tt.want {
				t.Errorf("Elapsed(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSize - Formats byte counts (bytes, KB, MB, GB)
// ---------------------------------------------------------------------------

func TestSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{name: "zero", input: 0, want: "0 bytes"},
		{name: "boundary: 1023 bytes", input: 1023, want: "1023 bytes"},
		{name: "boundary: 1 KB", input: 1024, want: "1 KB"},
		{name: "KB truncates", input: 1536, want: "1 KB"},
		{name: "boundary: 1 MB", input: 1024 * 1024, want: "1.0 MB"},
		{name: "MB decimal", input: 1024 * 1024 * 5 / 2, want: "2.5 MB"},
		{name: "boundary: 1 GB", input: 1024 * 1024 * 1024, want: "1.0 GB"},
		{name: "large realistic: 12 GB", input: 12 * 1024 * 1024 * 1024, want: "12.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := format.Size(tt.input); got != tt.want {
				t.Errorf("Size(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input float64
		want  string
	}{
		{input: 0, want: "0.0%"},
		{input: 30, want: "30.0%"},
		{input: 12.345, want: "12.3%"},
		{input: 100, want: "100.0%"},
	}

	for _, tt := range tests {
		if got := format.Percent(tt.input); got != tt.want {
			t.Errorf("Percent(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
