package transcript

import "strings"

// Redistribute maps revised text back onto the timing of original.
//
// Revised words are consumed in order by a single pointer that advances
// across segments. Each segment takes as many words as it originally held;
// when the stream runs short the segment takes what remains, and the last
// segment also absorbs any surplus so no revised text is lost. Words inside a
// segment get equal time slices of the unchanged segment span.
//
// This is not forced alignment: segment boundaries are preserved exactly,
// intra-segment word boundaries are approximated. A segment that receives no
// words keeps its span with empty text and no words. An empty revised text
// therefore yields an all-empty transcript; callers treat that as a soft
// failure and keep the original.
func Redistribute(original Transcript, revised string) Transcript {
	stream := strings.Fields(revised)
	out := Transcript{
		Segments: make([]Segment, 0, len(original.Segments)),
		Language: original.Language,
	}

	next := 0
	wordID := 0
	last := len(original.Segments) - 1

	for i, seg := range original.Segments {
		remaining := len(stream) - next
		take := min(seg.wordCount(), remaining)
		if i == last {
			take = remaining
		}

		taken := stream[next : next+take]
		next += take

		rebuilt := Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.Join(taken, " "),
		}

		if len(taken) > 0 {
			slice := seg.Duration() / float64(len(taken))
			rebuilt.Words = make([]Word, len(taken))
			for j, text := range taken {
				start := seg.Start + float64(j)*slice
				end := seg.Start + float64(j+1)*slice
				if j == len(taken)-1 {
					end = seg.End
				}
				rebuilt.Words[j] = Word{
					ID:    WordID(wordID),
					Text:  text,
					Start: start,
					End:   end,
				}
				wordID++
			}
		}

		out.Segments = append(out.Segments, rebuilt)
	}

	return out
}
