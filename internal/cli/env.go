package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-videocut/internal/cleanup"
	"github.com/alnah/go-videocut/internal/config"
	"github.com/alnah/go-videocut/internal/ffmpeg"
	"github.com/alnah/go-videocut/internal/media"
	"github.com/alnah/go-videocut/internal/speech"
)

// Environment variables read by the CLI.
const (
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvCleanupAPIKey = "VIDEOCUT_CLEANUP_API_KEY"
)

// Speech backends accepted by the recognizer setting.
const (
	RecognizerOpenAI  = "openai"
	RecognizerWhisper = "whisper"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	FFmpegResolver    FFmpegResolver
	ConfigLoader      ConfigLoader
	TranscoderFactory TranscoderFactory
	RecognizerFactory RecognizerFactory
	CleanerFactory    CleanerFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve(ctx context.Context, log zerolog.Logger) (string, error)
}

// ConfigLoader loads user settings.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// TranscoderFactory creates the media transcoder for a resolved ffmpeg.
type TranscoderFactory interface {
	NewTranscoder(ctx context.Context, ffmpegPath, videoCodec string, log zerolog.Logger) media.Transcoder
}

// RecognizerFactory creates a speech recognizer for a backend name.
type RecognizerFactory interface {
	NewRecognizer(backend, apiKey string, log zerolog.Logger) (speech.Recognizer, error)
}

// CleanerFactory creates the transcript cleaner.
type CleanerFactory interface {
	NewCleaner(apiKey string, settings CleanerSettings, log zerolog.Logger) (cleanup.Cleaner, error)
}

// CleanerSettings are the user-tunable parts of the cleanup client.
type CleanerSettings struct {
	BaseURL  string
	Model    string
	Language string
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithTranscoderFactory sets the transcoder factory.
func WithTranscoderFactory(f TranscoderFactory) EnvOption {
	return func(e *Env) { e.TranscoderFactory = f }
}

// WithRecognizerFactory sets the recognizer factory.
func WithRecognizerFactory(f RecognizerFactory) EnvOption {
	return func(e *Env) { e.RecognizerFactory = f }
}

// WithCleanerFactory sets the cleaner factory.
func WithCleanerFactory(f CleanerFactory) EnvOption {
	return func(e *Env) { e.CleanerFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
		Getenv:            os.Getenv,
		Now:               time.Now,
		FFmpegResolver:    defaultFFmpegResolver{},
		ConfigLoader:      defaultConfigLoader{},
		TranscoderFactory: defaultTranscoderFactory{},
		RecognizerFactory: defaultRecognizerFactory{},
		CleanerFactory:    defaultCleanerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context, log zerolog.Logger) (string, error) {
	return ffmpeg.NewResolver(ffmpeg.WithResolverLogger(log)).Resolve(ctx)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultTranscoderFactory struct{}

func (defaultTranscoderFactory) NewTranscoder(ctx context.Context, ffmpegPath, videoCodec string, log zerolog.Logger) media.Transcoder {
	exec := ffmpeg.NewExecutor(ffmpegPath, ffmpeg.WithLogger(log))
	ffmpeg.CheckVersion(ctx, exec, log)
	return media.NewFFmpeg(exec, media.WithVideoCodec(videoCodec), media.WithLogger(log))
}

type defaultRecognizerFactory struct{}

func (defaultRecognizerFactory) NewRecognizer(backend, apiKey string, log zerolog.Logger) (speech.Recognizer, error) {
	switch backend {
	case RecognizerOpenAI:
		if apiKey == "" {
			return nil, speech.ErrAPIKeyMissing
		}
		return speech.NewOpenAIRecognizer(openai.NewClient(apiKey), speech.WithOpenAILogger(log)), nil
	case RecognizerWhisper:
		loc := speech.NewLocator()
		binary, err := loc.FindWhisperCLI()
		if err != nil {
			return nil, err
		}
		model, err := loc.FindModel()
		if err != nil {
			return nil, err
		}
		return speech.NewWhisperCLI(binary, model, speech.WithWhisperLogger(log)), nil
	default:
		return nil, fmt.Errorf("%w: %q (use %s or %s)", ErrUnknownRecognizer, backend, RecognizerOpenAI, RecognizerWhisper)
	}
}

type defaultCleanerFactory struct{}

func (defaultCleanerFactory) NewCleaner(apiKey string, s CleanerSettings, log zerolog.Logger) (cleanup.Cleaner, error) {
	c, err := cleanup.NewChatCleaner(apiKey,
		cleanup.WithBaseURL(s.BaseURL),
		cleanup.WithModel(s.Model),
		cleanup.WithLanguage(s.Language),
		cleanup.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Compile-time interface verification.
var (
	_ FFmpegResolver    = defaultFFmpegResolver{}
	_ ConfigLoader      = defaultConfigLoader{}
	_ TranscoderFactory = defaultTranscoderFactory{}
	_ RecognizerFactory = defaultRecognizerFactory{}
	_ CleanerFactory    = defaultCleanerFactory{}
)
