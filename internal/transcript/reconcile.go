package transcript

import (
	"strings"

	"github.com/alnah/go-videocut/internal/timeline"
)

// Reconcile moves t onto the edited timeline described by keep.
//
// Words whose span lies entirely in a cut are dropped. Surviving words keep
// their IDs and get edited-timeline positions; a word straddling a cut shrinks
// by the removed length. Segment spans are remapped the same way and segments
// left with nothing are dropped. Segment IDs are kept so the editor can relate
// edited segments to the originals.
func Reconcile(t Transcript, keep []timeline.Interval) Transcript {
	out := Transcript{Language: t.Language}

	for _, seg := range t.Segments {
		span, err := mapSpan(seg.Start, seg.End, keep)
		if err != nil {
			continue
		}

		if len(seg.Words) == 0 {
			seg.Start, seg.End = span.Start, span.End
			out.Segments = append(out.Segments, seg)
			continue
		}

		words := make([]Word, 0, len(seg.Words))
		texts := make([]string, 0, len(seg.Words))
		for _, w := range seg.Words {
			mapped, err := mapSpan(w.Start, w.End, keep)
			if err != nil {
				continue
			}
			w.Start, w.End = mapped.Start, mapped.End
			words = append(words, w)
			texts = append(texts, w.Text)
		}
		if len(words) == 0 {
			continue
		}

		out.Segments = append(out.Segments, Segment{
			ID:    seg.ID,
			Start: span.Start,
			End:   span.End,
			Text:  strings.Join(texts, " "),
			Words: words,
		})
	}

	return out
}

// mapSpan maps [start, end] through keep. Zero-length spans are mapped as a
// point so instantaneous tokens survive when they sit inside a kept range.
func mapSpan(start, end float64, keep []timeline.Interval) (timeline.Interval, error) {
	if end <= start {
		p, err := timeline.MapToEdited(start, keep)
		if err != nil {
			return timeline.Interval{}, err
		}
		return timeline.Interval{Start: p, End: p}, nil
	}
	return timeline.MapInterval(timeline.Interval{Start: start, End: end}, keep)
}

// KeepRangesFromWords builds a keep-range list from the words an editor chose
// to retain: each word is padded by margin, clamped to [0, duration], and the
// results are merged. Words that collapse after clamping are ignored.
func KeepRangesFromWords(words []Word, margin, duration float64) []timeline.Interval {
	margin = max(margin, 0)
	spans := make([]timeline.Interval, 0, len(words))
	for _, w := range words {
		span, err := timeline.ExpandMargin(timeline.Interval{Start: w.Start, End: w.End}, margin, 0, duration)
		if err != nil {
			continue
		}
		spans = append(spans, span)
	}
	return timeline.Merge(spans)
}
