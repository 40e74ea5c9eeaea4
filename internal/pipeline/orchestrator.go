// Package pipeline sequences a silence-cutting run: transcribe, detect
// silences, render the trimmed or enhanced output, and collect statistics,
// reporting every step to an Observer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-videocut/internal/cleanup"
	"github.com/alnah/go-videocut/internal/media"
	"github.com/alnah/go-videocut/internal/speech"
	"github.com/alnah/go-videocut/internal/timeline"
	"github.com/alnah/go-videocut/internal/transcript"
)

// Stats summarizes a finished run.
type Stats struct {
	OriginalDuration  float64 `json:"original_duration"`
	ProcessedDuration float64 `json:"processed_duration"`
	RemovedSilence    float64 `json:"removed_silence_duration"`
	SilencePercentage float64 `json:"silence_percentage"`
	OutputSizeBytes   int64   `json:"output_size_bytes"`
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string `json:"run_id"`
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	Mode       State  `json:"mode"`

	// Transcript is on the original timeline; EditedTranscript is the same
	// transcript mapped through KeepRanges onto the output timeline.
	Transcript       transcript.Transcript `json:"transcript"`
	EditedTranscript transcript.Transcript `json:"edited_transcript"`
	CleanupApplied   bool                  `json:"cleanup_applied"`

	Silences   []timeline.Interval `json:"silences"`
	KeepRanges []timeline.Interval `json:"keep_ranges"`
	Stats      Stats               `json:"stats"`
}

// TranscriptResult is the outcome of Orchestrator.Transcribe.
type TranscriptResult struct {
	InputPath      string                `json:"input_path"`
	Duration       float64               `json:"duration_seconds"`
	Transcript     transcript.Transcript `json:"transcript"`
	Words          []transcript.Word     `json:"words"`
	CleanupApplied bool                  `json:"cleanup_applied"`
}

// Orchestrator runs pipelines. It holds no per-run state and may be shared
// by concurrent runs on different inputs.
type Orchestrator struct {
	transcoder media.Transcoder
	recognizer speech.Recognizer
	cleaner    cleanup.Cleaner
	observer   Observer
	log        zerolog.Logger
	newID      func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCleaner enables the language-cleanup pass for runs with Config.Cleanup.
func WithCleaner(c cleanup.Cleaner) Option {
	return func(o *Orchestrator) { o.cleaner = c }
}

// WithObserver sets the event receiver. Default: NopObserver.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// withIDGenerator replaces run ID generation (for testing).
func withIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// New creates an Orchestrator.
func New(t media.Transcoder, r speech.Recognizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transcoder: t,
		recognizer: r,
		observer:   NopObserver{},
		log:        zerolog.Nop(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the state of one pipeline execution.
type run struct {
	*Orchestrator
	ctx     context.Context
	id      string
	input   string
	output  string
	cfg     Config
	scratch Scratch
	state   State
	log     zerolog.Logger
}

func (o *Orchestrator) newRun(ctx context.Context, input string, cfg Config) *run {
	id := o.newID()
	return &run{
		Orchestrator: o,
		ctx:          ctx,
		id:           id,
		input:        input,
		output:       OutputPath(input),
		cfg:          cfg,
		scratch:      ScratchFiles(input),
		log:          o.log.With().Str("run_id", id).Str("input", input).Logger(),
	}
}

// Run processes input end to end. It returns the result, or an error that
// is a *StageError once any stage has started. Exactly one of
// PipelineCompleted or PipelineFailed is sent. Scratch files are removed
// in both cases; a partial output is left in place.
func (o *Orchestrator) Run(ctx context.Context, input string, cfg Config) (*Result, error) {
	r := o.newRun(ctx, input, cfg)
	defer r.removeScratch()

	start := time.Now()
	res, err := r.process()
	return r.finish(res, err, start)
}

// Transcribe runs only the transcription stage, for editors that pick the
// kept words themselves. It sends stage events but no pipeline events.
func (o *Orchestrator) Transcribe(ctx context.Context, input string, cfg Config) (*TranscriptResult, error) {
	r := o.newRun(ctx, input, cfg)
	defer r.removeScratch()

	if err := cfg.Validate(); err != nil {
		return nil, &StageError{Stage: StageTranscribe, Err: err}
	}

	var (
		duration float64
		t        transcript.Transcript
		applied  bool
	)
	err := r.stage(StateTranscribing, func() error {
		var err error
		if duration, err = r.transcoder.Probe(r.ctx, r.input); err != nil {
			return err
		}
		t, applied, err = r.transcribe()
		return err
	})
	if err != nil {
		r.log.Error().Err(err).Msg("transcription failed")
		return nil, err
	}

	r.log.Info().Int("segments", len(t.Segments)).Int("words", t.WordCount()).Msg("transcription complete")
	return &TranscriptResult{
		InputPath:      input,
		Duration:       duration,
		Transcript:     t,
		Words:          t.Words(),
		CleanupApplied: applied,
	}, nil
}

// Export renders input keeping only the given ranges, for editors that
// computed them from retained words. Ranges are merged and clamped to the
// input duration first. Events are sent as for Run.
func (o *Orchestrator) Export(ctx context.Context, input string, keep []timeline.Interval, cfg Config) (*Result, error) {
	r := o.newRun(ctx, input, cfg)
	start := time.Now()
	res, err := r.export(keep)
	return r.finish(res, err, start)
}

func (r *run) finish(res *Result, err error, start time.Time) (*Result, error) {
	if err != nil {
		r.state = StateFailed
		r.log.Error().Err(err).Str("kind", KindOf(err).String()).Msg("pipeline failed")
		if notifyErr := r.observer.PipelineFailed(err); notifyErr != nil {
			r.log.Warn().Err(notifyErr).Msg("failure notification not delivered")
		}
		return nil, err
	}

	r.state = StateDone
	r.log.Info().
		Dur("elapsed", time.Since(start)).
		Str("output", res.OutputPath).
		Float64("removed_silence", res.Stats.RemovedSilence).
		Msg("pipeline complete")
	if err := r.observer.PipelineCompleted(res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return res, nil
}

// Settings are checked before any work starts; a bad setting is reported
// against the first stage the run would have entered.
func (r *run) process() (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, &StageError{Stage: StageTranscribe, Err: err}
	}

	res := &Result{RunID: r.id, InputPath: r.input, OutputPath: r.output}
	var duration float64

	err := r.stage(StateTranscribing, func() error {
		var err error
		if duration, err = r.transcoder.Probe(r.ctx, r.input); err != nil {
			return err
		}
		res.Transcript, res.CleanupApplied, err = r.transcribe()
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StateDetectingSilences, func() error {
		var err error
		res.Silences, err = r.transcoder.DetectSilences(r.ctx, r.input, r.cfg.SilenceThresholdDB, r.cfg.MinSilence)
		return err
	})
	if err != nil {
		return nil, err
	}

	removed := timeline.Total(res.Silences)
	full := []timeline.Interval{{Start: 0, End: duration}}

	switch {
	case r.cfg.CutSilences && len(res.Silences) > 0:
		res.Mode = StateCuttingSilences
		res.KeepRanges = timeline.KeepRanges(res.Silences, duration, r.cfg.CutMargin)
		r.log.Debug().Int("keep_ranges", len(res.KeepRanges)).Float64("kept", timeline.Total(res.KeepRanges)).Msg("keep ranges computed")
		err = r.stage(StateCuttingSilences, func() error {
			return r.cut(res.KeepRanges, r.cfg.Enhance)
		})
	case r.cfg.Enhance:
		res.Mode = StateEnhancingOnly
		res.KeepRanges = full
		err = r.stage(StateEnhancingOnly, func() error {
			if err := r.transcoder.EnhanceAudio(r.ctx, r.input, r.scratch.EnhancedAudio); err != nil {
				return err
			}
			return r.transcoder.Mux(r.ctx, r.input, r.scratch.EnhancedAudio, r.output)
		})
	default:
		res.Mode = StateCopyOnly
		res.KeepRanges = full
		err = r.stage(StateCopyOnly, func() error {
			return r.transcoder.Copy(r.ctx, r.input, r.output)
		})
	}
	if err != nil {
		return nil, err
	}

	if res.Stats, err = r.stats(duration, removed); err != nil {
		return nil, &StageError{Stage: stageFor(res.Mode), Err: err}
	}

	if res.Mode == StateCuttingSilences {
		res.EditedTranscript = transcript.Reconcile(res.Transcript, res.KeepRanges)
	} else {
		res.EditedTranscript = res.Transcript
	}
	return res, nil
}

func (r *run) export(keep []timeline.Interval) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, &StageError{Stage: StageCutSilences, Err: err}
	}
	if err := r.ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageCutSilences, Err: err}
	}

	duration, err := r.transcoder.Probe(r.ctx, r.input)
	if err != nil {
		return nil, &StageError{Stage: StageCutSilences, Err: err}
	}

	var clamped []timeline.Interval
	for _, iv := range timeline.Merge(keep) {
		if c, err := timeline.Clamp(iv, 0, duration); err == nil {
			clamped = append(clamped, c)
		}
	}
	if len(clamped) == 0 {
		return nil, &StageError{Stage: StageCutSilences, Err: fmt.Errorf("export %s: %w", r.input, media.ErrNoKeepRanges)}
	}
	if err := timeline.Validate(clamped, duration); err != nil {
		return nil, &StageError{Stage: StageCutSilences, Err: err}
	}

	res := &Result{
		RunID:      r.id,
		InputPath:  r.input,
		OutputPath: r.output,
		Mode:       StateCuttingSilences,
		KeepRanges: clamped,
	}
	err = r.stage(StateCuttingSilences, func() error {
		return r.cut(clamped, r.cfg.Enhance)
	})
	if err != nil {
		return nil, err
	}

	if res.Stats, err = r.stats(duration, duration-timeline.EditedDuration(clamped)); err != nil {
		return nil, &StageError{Stage: StageCutSilences, Err: err}
	}
	return res, nil
}

// stage runs fn as state's stage. Cancellation is checked before the stage
// starts; any failure is reported with StageFailed and tagged with the stage.
func (r *run) stage(state State, fn func() error) error {
	s := stageFor(state)
	if err := r.ctx.Err(); err != nil {
		return r.fail(s, err)
	}

	r.state = state
	r.log.Debug().Stringer("state", state).Msg("entering state")
	if err := r.observer.StageStarted(s); err != nil {
		return r.notifyFailed(s, err)
	}

	if err := fn(); err != nil {
		if errors.Is(err, ErrNotification) {
			return &StageError{Stage: s, Err: err}
		}
		return r.fail(s, err)
	}

	if err := r.observer.StageCompleted(s); err != nil {
		return r.notifyFailed(s, err)
	}
	return nil
}

func (r *run) fail(s Stage, err error) error {
	if notifyErr := r.observer.StageFailed(s, err); notifyErr != nil {
		r.log.Warn().Err(notifyErr).Msg("stage failure notification not delivered")
	}
	return &StageError{Stage: s, Err: err}
}

func (r *run) notifyFailed(s Stage, err error) error {
	return &StageError{Stage: s, Err: fmt.Errorf("%w: %w", ErrNotification, err)}
}

func (r *run) progress(fraction float64) error {
	if err := r.observer.StageProgress(stageFor(r.state), fraction); err != nil {
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return nil
}

// transcribe extracts speech PCM, recognizes it, and optionally cleans the
// result. Progress is 0.5 after extraction and 1.0 at the end.
func (r *run) transcribe() (transcript.Transcript, bool, error) {
	if err := r.transcoder.ExtractPCM(r.ctx, r.input, r.scratch.PCM, media.SpeechSampleRate, media.SpeechChannels); err != nil {
		return transcript.Transcript{}, false, err
	}
	if err := r.progress(0.5); err != nil {
		return transcript.Transcript{}, false, err
	}

	samples, err := media.ReadPCMFile(r.scratch.PCM)
	if err != nil {
		return transcript.Transcript{}, false, err
	}
	segments, err := r.recognizer.Recognize(r.ctx, samples, speech.Options{Language: r.cfg.Language})
	if err != nil {
		return transcript.Transcript{}, false, err
	}
	t := speech.BuildTranscript(segments, r.cfg.Language)

	applied := false
	if r.cfg.Cleanup && r.cleaner != nil {
		t, applied = cleanup.Refine(r.ctx, r.cleaner, t, r.cfg.CleanupTimeout, r.log)
	}

	if err := r.progress(1); err != nil {
		return transcript.Transcript{}, false, err
	}
	return t, applied, nil
}

// cut renders keep, forwarding render progress to the observer. A refused
// progress event stops the render.
func (r *run) cut(keep []timeline.Interval, enhance bool) error {
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	var notifyErr error
	report := func(fraction float64) {
		if notifyErr != nil {
			return
		}
		if notifyErr = r.progress(fraction); notifyErr != nil {
			cancel()
		}
	}

	err := r.transcoder.CutAndExport(ctx, r.input, r.output, keep, enhance, report)
	if notifyErr != nil {
		return notifyErr
	}
	return err
}

// stats measures the rendered output.
func (r *run) stats(duration, removed float64) (Stats, error) {
	s := Stats{
		OriginalDuration: duration,
		RemovedSilence:   removed,
	}
	if duration > 0 {
		s.SilencePercentage = removed / duration * 100
	}
	if info, err := os.Stat(r.output); err == nil {
		s.OutputSizeBytes = info.Size()
	}

	processed, err := r.transcoder.Probe(r.ctx, r.output)
	if err != nil {
		return Stats{}, fmt.Errorf("probe output: %w", err)
	}
	s.ProcessedDuration = processed
	return s, nil
}

func (r *run) removeScratch() {
	for _, p := range []string{r.scratch.PCM, r.scratch.EnhancedAudio} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.log.Warn().Err(err).Str("path", p).Msg("could not remove scratch file")
		}
	}
}
