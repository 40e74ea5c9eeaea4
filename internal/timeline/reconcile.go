package timeline

import (
	"fmt"
	"math"
)

// MapToEdited maps t from the original timeline onto the edited timeline
// produced by cutting everything outside keep.
//
// keep must be a valid keep-range list (see Validate). The scan is linear,
// which is fine for the tens to hundreds of ranges a video produces.
// If t falls in a cut span, the error is a *PointRemovedError carrying the
// nearest retained boundary.
func MapToEdited(t float64, keep []Interval) (float64, error) {
	accumulated := 0.0
	for _, r := range keep {
		if r.Contains(t) {
			return accumulated + (t - r.Start), nil
		}
		if t < r.Start {
			break
		}
		accumulated += r.Duration()
	}
	return 0, nearestBoundary(t, keep)
}

// nearestBoundary builds the PointRemovedError for a point outside every range.
func nearestBoundary(t float64, keep []Interval) error {
	if len(keep) == 0 {
		return &PointRemovedError{Point: t}
	}

	best := &PointRemovedError{Point: t}
	bestDist := math.Inf(1)
	accumulated := 0.0
	for _, r := range keep {
		if d := math.Abs(t - r.Start); d < bestDist {
			bestDist = d
			best.Nearest = r.Start
			best.EditedNearest = accumulated
		}
		accumulated += r.Duration()
		if d := math.Abs(t - r.End); d < bestDist {
			bestDist = d
			best.Nearest = r.End
			best.EditedNearest = accumulated
		}
	}
	return best
}

// MapInterval maps the kept portion of iv onto the edited timeline.
// The start maps from the first keep range iv overlaps and the end from the
// last one, so an interval spanning a cut shrinks by the removed length.
// Returns ErrDegenerateInterval when no positive-length part of iv is kept.
func MapInterval(iv Interval, keep []Interval) (Interval, error) {
	var (
		out   Interval
		found bool
	)
	accumulated := 0.0
	for _, r := range keep {
		lo := max(iv.Start, r.Start)
		hi := min(iv.End, r.End)
		if hi > lo {
			if !found {
				out.Start = accumulated + (lo - r.Start)
				found = true
			}
			out.End = accumulated + (hi - r.Start)
		}
		if r.Start >= iv.End {
			break
		}
		accumulated += r.Duration()
	}
	if !found {
		return Interval{}, fmt.Errorf("map %s: %w", iv, ErrDegenerateInterval)
	}
	return out, nil
}

// EditedDuration returns the length of the timeline after cutting.
func EditedDuration(keep []Interval) float64 {
	return Total(keep)
}

// Validate checks that keep is strictly increasing, non-overlapping, made of
// positive-length ranges, and contained in [0, duration].
func Validate(keep []Interval, duration float64) error {
	prevEnd := math.Inf(-1)
	for i, r := range keep {
		if r.End <= r.Start {
			return fmt.Errorf("range %d %s has non-positive length: %w", i, r, ErrInvalidKeepRanges)
		}
		if r.Start < 0 || r.End > duration {
			return fmt.Errorf("range %d %s outside [0, %.3f]: %w", i, r, duration, ErrInvalidKeepRanges)
		}
		if r.Start < prevEnd {
			return fmt.Errorf("range %d %s overlaps previous range: %w", i, r, ErrInvalidKeepRanges)
		}
		prevEnd = r.End
	}
	return nil
}
