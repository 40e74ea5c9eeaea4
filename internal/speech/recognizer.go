// Package speech turns speech samples into timed segments and words, either
// through the OpenAI audio API or a local whisper.cpp installation.
package speech

import (
	"context"
	"math"
	"strings"

	"github.com/alnah/go-videocut/internal/transcript"
)

// Token is a recognizer output unit with its time span in seconds.
// A token whose text has no leading space continues the previous word.
type Token struct {
	Text  string
	Start float64
	End   float64
}

// Segment is one recognized utterance. Tokens may be empty when the
// backend gives no sub-segment timing.
type Segment struct {
	Start  float64
	End    float64
	Text   string
	Tokens []Token
}

// Options configures a recognition call.
type Options struct {
	// Language is an ISO 639-1 hint. Empty means auto-detect.
	Language string

	// Prompt biases the vocabulary (names, jargon). Ignored by backends
	// that do not support it.
	Prompt string
}

// Recognizer converts mono speech samples to segments.
type Recognizer interface {
	// Recognize transcribes samples, which must be mono float32 PCM at
	// SampleRate. Timestamps are relative to the first sample.
	Recognize(ctx context.Context, samples []float32, opts Options) ([]Segment, error)
}

// SampleRate is the sample rate every recognizer expects.
const SampleRate = 16000

// BuildTranscript converts recognizer segments to a transcript with
// transcript-global word IDs. Segment IDs follow output order.
func BuildTranscript(segments []Segment, language string) transcript.Transcript {
	t := transcript.Transcript{
		Segments: make([]transcript.Segment, 0, len(segments)),
		Language: language,
	}

	next := 0
	for i, s := range segments {
		t.Segments = append(t.Segments, transcript.Segment{
			ID:    i,
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
			Words: wordsFromTokens(s.Tokens, &next),
		})
	}
	return t
}

// wordsFromTokens drops control tokens ("[_BEG_]", "<|endoftext|>"), glues
// sub-word pieces onto the word they continue, and drops word-opening
// tokens with unusable timestamps. next is the global word counter.
func wordsFromTokens(tokens []Token, next *int) []transcript.Word {
	var words []transcript.Word
	for _, tok := range tokens {
		text := strings.TrimSpace(tok.Text)
		if text == "" || strings.HasPrefix(text, "[") || strings.HasPrefix(text, "<") {
			continue
		}

		// Continuations are often zero-length ("'t", trailing punctuation);
		// only a token that opens a word needs a usable span.
		continues := len(words) > 0 && !strings.HasPrefix(tok.Text, " ")
		if continues {
			last := &words[len(words)-1]
			last.Text += text
			if !math.IsNaN(tok.End) && tok.End > last.End {
				last.End = tok.End
			}
			continue
		}
		if !validSpan(tok.Start, tok.End) {
			continue
		}

		words = append(words, transcript.Word{
			ID:    transcript.WordID(*next),
			Text:  text,
			Start: tok.Start,
			End:   tok.End,
		})
		*next++
	}
	return words
}

func validSpan(start, end float64) bool {
	if math.IsNaN(start) || math.IsNaN(end) {
		return false
	}
	return start >= 0 && end > start
}
