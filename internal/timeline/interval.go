// Package timeline implements the time-range arithmetic behind silence cutting:
// clamping and padding intervals, reducing detected silences to keep ranges,
// and mapping original-timeline positions onto the edited timeline.
//
// All times are float64 seconds. Intervals are values; every operation
// returns new intervals and never mutates its input.
package timeline

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// touchEpsilon is the gap below which two ranges are considered touching.
const touchEpsilon = 1e-9

// Interval is a closed time span in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the interval.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Contains reports whether t lies within [Start, End].
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Start && t <= iv.End
}

// String returns a compact representation for logs.
func (iv Interval) String() string {
	return fmt.Sprintf("[%.3f, %.3f]", iv.Start, iv.End)
}

// Clamp truncates both ends of iv into [lower, upper].
// Returns ErrDegenerateInterval if the result has End <= Start.
func Clamp(iv Interval, lower, upper float64) (Interval, error) {
	out := Interval{
		Start: min(max(iv.Start, lower), upper),
		End:   min(max(iv.End, lower), upper),
	}
	if out.End <= out.Start {
		return Interval{}, fmt.Errorf("clamp %s to [%.3f, %.3f]: %w", iv, lower, upper, ErrDegenerateInterval)
	}
	return out, nil
}

// ExpandMargin pads iv by margin on both sides, then clamps it into [lower, upper].
// The pad keeps cuts from clipping speech onsets and offsets.
func ExpandMargin(iv Interval, margin, lower, upper float64) (Interval, error) {
	return Clamp(Interval{Start: iv.Start - margin, End: iv.End + margin}, lower, upper)
}

// ContractMargin returns the span of a silence that is actually removed
// once margin is given back to the surrounding speech: (start+margin, end-margin).
// The second result is false when the contracted span would invert, meaning
// the silence is too short to be cut at all.
func ContractMargin(silence Interval, margin float64) (Interval, bool) {
	out := Interval{Start: silence.Start + margin, End: silence.End - margin}
	if out.End <= out.Start {
		return Interval{}, false
	}
	return out, true
}

// Merge returns the union of ivs as sorted, non-overlapping intervals.
// Overlapping and touching intervals are joined; degenerate ones are dropped.
// The input slice is not modified.
func Merge(ivs []Interval) []Interval {
	sorted := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.End > iv.Start {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.SortFunc(sorted, func(a, b Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End+touchEpsilon {
			last.End = max(last.End, iv.End)
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Coalesce joins consecutive ranges of an ordered list that touch exactly.
// Unlike Merge it assumes the input is already sorted and non-overlapping.
func Coalesce(ranges []Interval) []Interval {
	if len(ranges) == 0 {
		return nil
	}
	out := make([]Interval, 0, len(ranges))
	out = append(out, ranges[0])
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r.Start-last.End <= touchEpsilon {
			last.End = max(last.End, r.End)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Total returns the summed duration of ivs.
func Total(ivs []Interval) float64 {
	if len(ivs) == 0 {
		return 0
	}
	durations := make([]float64, len(ivs))
	for i, iv := range ivs {
		durations[i] = iv.Duration()
	}
	return floats.Sum(durations)
}
