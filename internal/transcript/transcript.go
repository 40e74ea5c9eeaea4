// Package transcript holds the word-aligned transcript model and the
// operations that keep it consistent with an edited timeline: redistribution
// of revised text onto the original timing, and reconciliation through a
// keep-range list.
package transcript

import (
	"fmt"
	"strings"
)

// Word is a single recognized word with its span in the original timeline.
type Word struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a contiguous transcript unit. Its span covers its words' spans
// and its words are time-ordered and non-overlapping.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Duration returns the length of the segment span.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// wordCount returns the number of words the segment holds. Segments produced
// without word-level timing fall back to counting the words of their text.
func (s Segment) wordCount() int {
	if len(s.Words) > 0 {
		return len(s.Words)
	}
	return len(strings.Fields(s.Text))
}

// Transcript is an ordered list of non-overlapping segments.
// Gaps between segments are legal and usually silence.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
}

// WordID returns the transcript-global identifier for the n-th word.
func WordID(n int) string {
	return fmt.Sprintf("w%d", n)
}

// Words returns every word of t in order.
func (t Transcript) Words() []Word {
	var words []Word
	for _, seg := range t.Segments {
		words = append(words, seg.Words...)
	}
	return words
}

// WordCount returns the total number of words across all segments.
func (t Transcript) WordCount() int {
	n := 0
	for _, seg := range t.Segments {
		n += seg.wordCount()
	}
	return n
}

// Duration returns the end of the last segment, or 0 for an empty transcript.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// Flatten joins segment texts with single spaces. The result is the input
// handed to the language-cleanup pass.
func Flatten(t Transcript) string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
