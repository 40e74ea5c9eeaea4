package timeline

// Reduce converts an ordered, non-overlapping silence list into the ranges
// of the original timeline to keep.
//
// It walks the silences with a monotonic cursor starting at 0. For each
// silence (s, e) it keeps (cursor, min(s+margin, duration)) when that span
// is non-empty, then moves the cursor to max(e-margin, keepEnd). Anything
// left after the last silence is kept up to duration. Because the cursor
// never moves backwards, silences closer together than 2*margin cannot
// produce overlapping ranges; their gap collapses and is skipped.
//
// The result is sorted, non-overlapping, and every range has positive
// length. Ranges may touch; see KeepRanges for the coalesced form.
// A negative margin is treated as zero.
func Reduce(silences []Interval, duration, margin float64) []Interval {
	margin = max(margin, 0)
	if duration <= 0 {
		return nil
	}

	var keep []Interval
	cursor := 0.0

	for _, s := range silences {
		keepEnd := min(s.Start+margin, duration)
		if keepEnd > cursor {
			keep = append(keep, Interval{Start: cursor, End: keepEnd})
		}
		nextStart := max(s.End-margin, 0)
		cursor = max(nextStart, keepEnd)
	}

	if cursor < duration {
		keep = append(keep, Interval{Start: cursor, End: duration})
	}

	return keep
}

// KeepRanges is Reduce followed by Coalesce: adjacent ranges that touch
// exactly are joined so downstream filters see the minimal list.
func KeepRanges(silences []Interval, duration, margin float64) []Interval {
	return Coalesce(Reduce(silences, duration, margin))
}

// RemovedSpans returns the spans Reduce actually cuts: each silence
// contracted by margin and clamped to [0, duration]. Silences too short to
// survive contraction contribute nothing.
func RemovedSpans(silences []Interval, duration, margin float64) []Interval {
	margin = max(margin, 0)
	var removed []Interval
	for _, s := range silences {
		span, ok := ContractMargin(s, margin)
		if !ok {
			continue
		}
		clamped, err := Clamp(span, 0, duration)
		if err != nil {
			continue
		}
		removed = append(removed, clamped)
	}
	return Merge(removed)
}
