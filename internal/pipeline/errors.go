package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-videocut/internal/apierr"
	"github.com/alnah/go-videocut/internal/ffmpeg"
	"github.com/alnah/go-videocut/internal/lang"
	"github.com/alnah/go-videocut/internal/media"
	"github.com/alnah/go-videocut/internal/speech"
	"github.com/alnah/go-videocut/internal/timeline"
)

// ErrInvalidConfig indicates a Config field is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrNotification indicates the observer refused an event.
var ErrNotification = errors.New("event notification failed")

// ErrObserverClosed indicates the event receiver went away.
var ErrObserverClosed = errors.New("event receiver closed")

// StageError tags a run failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Kind classifies a run failure.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindInvalidConfig
	KindMissingResource
	KindExternalTool
	KindNotification
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "invalid_config"
	case KindMissingResource:
		return "missing_resource"
	case KindExternalTool:
		return "external_tool"
	case KindNotification:
		return "notification"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Cancellation wins over every other kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrNotification):
		return KindNotification
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, lang.ErrInvalid),
		errors.Is(err, timeline.ErrInvalidKeepRanges),
		errors.Is(err, media.ErrNoKeepRanges):
		return KindInvalidConfig
	case errors.Is(err, ffmpeg.ErrNotFound),
		errors.Is(err, speech.ErrModelNotFound),
		errors.Is(err, speech.ErrRecognizerNotFound),
		errors.Is(err, speech.ErrAPIKeyMissing),
		errors.Is(err, apierr.ErrAuthFailed),
		errors.Is(err, apierr.ErrQuotaExceeded):
		return KindMissingResource
	case errors.Is(err, media.ErrTranscoderFailed),
		errors.Is(err, media.ErrInvalidPCM),
		errors.Is(err, speech.ErrRecognitionFailed):
		return KindExternalTool
	}
	return KindUnknown
}
