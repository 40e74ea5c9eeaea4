package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-videocut/internal/transcript"
)

// DefaultTimeout bounds a whole Refine call, retries included.
const DefaultTimeout = 60 * time.Second

// Refine runs c over the flattened transcript and redistributes the result
// onto the original segments. It never fails: on any error, on timeout, or
// when the reply contains no words, it logs a warning and returns t
// unchanged with applied=false.
func Refine(ctx context.Context, c Cleaner, t transcript.Transcript, timeout time.Duration, log zerolog.Logger) (_ transcript.Transcript, applied bool) {
	if c == nil || t.WordCount() == 0 {
		return t, false
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	original := transcript.Flatten(t)
	revised, err := c.Clean(ctx, original)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ErrCleanupFailed, ctx.Err())
		}
		log.Warn().Err(err).Msg("transcript cleanup failed, keeping recognizer output")
		return t, false
	}

	refined := transcript.Redistribute(t, revised)
	if refined.WordCount() == 0 {
		log.Warn().Msg("transcript cleanup returned no words, keeping recognizer output")
		return t, false
	}

	log.Info().
		Int("words_before", t.WordCount()).
		Int("words_after", refined.WordCount()).
		Msg("transcript cleaned")
	return refined, true
}
