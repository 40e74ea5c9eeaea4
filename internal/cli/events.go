package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/alnah/go-videocut/internal/format"
	"github.com/alnah/go-videocut/internal/pipeline"
)

// Event output formats for --events.
const (
	EventsText = "text"
	EventsJSON = "json"
)

// checkEventFormat validates an --events value.
func checkEventFormat(f string) error {
	if f != EventsText && f != EventsJSON {
		return fmt.Errorf("%w %q (use %s or %s)", ErrInvalidEventFormat, f, EventsText, EventsJSON)
	}
	return nil
}

// stageLabels are the human-readable stage names for text output.
var stageLabels = map[pipeline.Stage]string{
	pipeline.StageTranscribe:     "Transcribing",
	pipeline.StageDetectSilences: "Detecting silences",
	pipeline.StageCutSilences:    "Cutting silences",
	pipeline.StageEnhanceAudio:   "Enhancing audio",
	pipeline.StageCopy:           "Copying",
}

func stageLabel(s pipeline.Stage) string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// eventLine is one JSON event, tagged with the input it belongs to.
type eventLine struct {
	Input string `json:"input"`
	pipeline.Event
}

// eventPrinter renders events from concurrent runs onto a single writer.
// Text goes to stderr for people; JSON lines go to stdout for programs.
type eventPrinter struct {
	mu     sync.Mutex
	format string
	now    func() time.Time
	labels bool

	text io.Writer
	enc  *json.Encoder
}

// newEventPrinter creates a printer. When labels is set, text lines are
// prefixed with the input's base name so batch output stays readable.
func newEventPrinter(env *Env, eventFormat string, labels bool) *eventPrinter {
	return &eventPrinter{
		format: eventFormat,
		now:    env.Now,
		labels: labels,
		text:   env.Stderr,
		enc:    json.NewEncoder(env.Stdout),
	}
}

// observer returns the Observer for one run on input.
// A failed JSON write aborts the run; text output is best effort.
func (p *eventPrinter) observer(input string) pipeline.FuncObserver {
	var (
		started  time.Time
		lastStep = -1
		prefix   string
	)
	if p.labels {
		prefix = "[" + filepath.Base(input) + "] "
	}

	return func(e pipeline.Event) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.format == EventsJSON {
			if err := p.enc.Encode(eventLine{Input: input, Event: e}); err != nil {
				return fmt.Errorf("%w: %w", pipeline.ErrObserverClosed, err)
			}
			return nil
		}

		switch e.Kind {
		case pipeline.EventStageStarted:
			started = p.now()
			lastStep = -1
			_, _ = fmt.Fprintf(p.text, "%s%s...\n", prefix, stageLabel(e.Stage))
		case pipeline.EventStageProgress:
			// One line per 10% step; ffmpeg reports far more often.
			if step := int(e.Progress * 10); step > lastStep {
				lastStep = step
				_, _ = fmt.Fprintf(p.text, "%s  %s %s\n", prefix, stageLabel(e.Stage), format.Percent(e.Progress*100))
			}
		case pipeline.EventStageCompleted:
			_, _ = fmt.Fprintf(p.text, "%s%s done (%s)\n", prefix, stageLabel(e.Stage), format.Elapsed(p.now().Sub(started)))
		case pipeline.EventStageFailed:
			_, _ = fmt.Fprintf(p.text, "%s%s failed: %s\n", prefix, stageLabel(e.Stage), e.Error)
		}
		return nil
	}
}
