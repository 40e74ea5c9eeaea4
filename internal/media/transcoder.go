// Package media drives the external media transcoder: probing durations,
// detecting silences, extracting speech PCM, and rendering the edited output.
package media

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/alnah/go-videocut/internal/ffmpeg"
	"github.com/alnah/go-videocut/internal/timeline"
)

// Compile-time interface implementation check.
var _ Transcoder = (*FFmpeg)(nil)

// ProgressFunc receives the completed fraction of a render, in [0, 1].
type ProgressFunc = ffmpeg.ProgressFunc

// Transcoder is the capability the pipeline needs from a media tool.
// Every method blocks until the tool exits; output paths are overwritten.
type Transcoder interface {
	// Probe returns the container duration in seconds.
	Probe(ctx context.Context, input string) (float64, error)

	// DetectSilences returns the ordered silent spans of input's audio.
	DetectSilences(ctx context.Context, input string, noiseDB, minSeconds float64) ([]timeline.Interval, error)

	// ExtractPCM writes input's audio to output as headerless f32le samples.
	ExtractPCM(ctx context.Context, input, output string, sampleRate, channels int) error

	// CutAndExport renders only the keep ranges of input, optionally
	// running the enhancement chain on the cut audio.
	CutAndExport(ctx context.Context, input, output string, keep []timeline.Interval, enhance bool, report ProgressFunc) error

	// EnhanceAudio writes input's enhanced audio track to output.
	EnhanceAudio(ctx context.Context, input, output string) error

	// Mux combines the video stream of video with the audio stream of audio.
	Mux(ctx context.Context, video, audio, output string) error

	// Copy copies the video stream and re-encodes audio.
	Copy(ctx context.Context, input, output string) error
}

// runner executes ffmpeg. *ffmpeg.Executor satisfies it.
type runner interface {
	Run(ctx context.Context, args []string) (string, error)
	RunProgress(ctx context.Context, args []string, total float64, report ffmpeg.ProgressFunc) error
}

// DefaultVideoCodec returns the H.264 encoder for the current platform:
// the VideoToolbox hardware encoder on macOS, libx264 elsewhere.
func DefaultVideoCodec() string {
	if runtime.GOOS == "darwin" {
		return "h264_videotoolbox"
	}
	return "libx264"
}

// FFmpeg implements Transcoder on top of an ffmpeg binary.
type FFmpeg struct {
	run        runner
	videoCodec string
	log        zerolog.Logger
}

// Option configures an FFmpeg transcoder.
type Option func(*FFmpeg)

// WithVideoCodec sets the H.264 encoder used for cut exports.
// Default: DefaultVideoCodec().
func WithVideoCodec(codec string) Option {
	return func(f *FFmpeg) {
		if codec != "" {
			f.videoCodec = codec
		}
	}
}

// WithLogger sets the logger for filter and timing diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(f *FFmpeg) { f.log = l }
}

// NewFFmpeg creates a transcoder that runs commands through r.
func NewFFmpeg(r runner, opts ...Option) *FFmpeg {
	f := &FFmpeg{
		run:        r,
		videoCodec: DefaultVideoCodec(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Probe returns the duration of input. Only a microsecond is decoded, so the
// call is cheap even for long videos.
func (f *FFmpeg) Probe(ctx context.Context, input string) (float64, error) {
	args := []string{"-i", input, "-t", "0.000001", "-f", "null", "-"}
	output, err := f.run.Run(ctx, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, fmt.Errorf("probe %s: %w", input, ctxErr)
	}

	duration, parseErr := parseDuration(output)
	if parseErr != nil {
		if err != nil {
			return 0, f.failure("probe", input, err, output)
		}
		return 0, f.failure("probe", input, parseErr, output)
	}
	f.log.Debug().Str("input", input).Float64("duration", duration).Msg("probed")
	return duration, nil
}

// DetectSilences runs silencedetect over the whole input and parses its log.
func (f *FFmpeg) DetectSilences(ctx context.Context, input string, noiseDB, minSeconds float64) ([]timeline.Interval, error) {
	filter := SilenceDetectFilter(noiseDB, minSeconds)
	f.log.Debug().Str("filter", filter).Msg("detecting silences")

	output, err := f.run.Run(ctx, []string{"-i", input, "-af", filter, "-f", "null", "-"})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("detect silences: %w", ctxErr)
	}
	if err != nil {
		return nil, f.failure("detect silences", input, err, output)
	}

	duration, _ := parseDuration(output)
	silences := parseSilences(output, duration)
	f.log.Debug().Int("count", len(silences)).Float64("total", timeline.Total(silences)).Msg("silences detected")
	return silences, nil
}

// ExtractPCM writes raw mono or multi-channel f32le audio for recognition.
func (f *FFmpeg) ExtractPCM(ctx context.Context, input, output string, sampleRate, channels int) error {
	args := []string{
		"-i", input,
		"-ar", fmt.Sprint(sampleRate),
		"-ac", fmt.Sprint(channels),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-y", output,
	}
	return f.exec(ctx, "extract pcm", input, args)
}

// CutAndExport re-encodes input keeping only the frames and samples inside
// keep. Progress is reported against the edited duration.
func (f *FFmpeg) CutAndExport(ctx context.Context, input, output string, keep []timeline.Interval, enhance bool, report ProgressFunc) error {
	if len(keep) == 0 {
		return fmt.Errorf("cut %s: %w", input, ErrNoKeepRanges)
	}

	vf := VideoSelectFilter(keep)
	af := AudioSelectFilter(keep, enhance)
	f.log.Debug().Str("video_filter", vf).Str("audio_filter", af).Msg("cutting")

	args := []string{"-i", input, "-vf", vf, "-af", af}
	args = append(args, videoEncodeArgs(f.videoCodec)...)
	args = append(args, audioEncodeArgs()...)
	args = append(args, "-movflags", "+faststart", "-y", output)

	if err := f.run.RunProgress(ctx, args, timeline.EditedDuration(keep), report); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("cut %s: %w", input, ctxErr)
		}
		return fmt.Errorf("%w: cut %s: %v", ErrTranscoderFailed, input, err)
	}
	return nil
}

// EnhanceAudio writes the denoised, loudness-normalized audio of input as AAC.
func (f *FFmpeg) EnhanceAudio(ctx context.Context, input, output string) error {
	args := []string{"-i", input, "-vn", "-af", EnhanceFilter}
	args = append(args, audioEncodeArgs()...)
	args = append(args, "-y", output)
	return f.exec(ctx, "enhance audio", input, args)
}

// Mux takes the first video stream of video and the first audio stream of
// audio without re-encoding either.
func (f *FFmpeg) Mux(ctx context.Context, video, audio, output string) error {
	args := []string{
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		"-shortest",
		"-movflags", "+faststart",
		"-y", output,
	}
	return f.exec(ctx, "mux", video, args)
}

// Copy copies the video stream, re-encodes audio to AAC, and moves the index
// to the front of the file.
func (f *FFmpeg) Copy(ctx context.Context, input, output string) error {
	args := []string{"-i", input, "-c:v", "copy"}
	args = append(args, audioEncodeArgs()...)
	args = append(args, "-movflags", "+faststart", "-y", output)
	return f.exec(ctx, "copy", input, args)
}

// exec runs a job whose output only matters on failure.
func (f *FFmpeg) exec(ctx context.Context, op, input string, args []string) error {
	output, err := f.run.Run(ctx, args)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", op, input, ctxErr)
	}
	return f.failure(op, input, err, output)
}

// failure builds an ErrTranscoderFailed carrying the tail of ffmpeg's log.
func (f *FFmpeg) failure(op, input string, err error, output string) error {
	const maxOutput = 2048
	if len(output) > maxOutput {
		output = "..." + output[len(output)-maxOutput:]
	}
	f.log.Error().Err(err).Str("op", op).Str("input", input).Msg("ffmpeg failed")
	return fmt.Errorf("%w: %s %s: %v\nOutput: %s", ErrTranscoderFailed, op, input, err, output)
}
