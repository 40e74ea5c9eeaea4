package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alnah/go-videocut/internal/cleanup"
	"github.com/alnah/go-videocut/internal/media"
	"github.com/alnah/go-videocut/internal/pipeline"
	"github.com/alnah/go-videocut/internal/speech"
)

// runFlags holds the processing flags a command exposes. Only the flags the
// user actually set override the loaded settings.
type runFlags struct {
	threshold  float64
	minSilence float64
	margin     float64
	noEnhance  bool
	noCut      bool
	language   string
	cleanup    bool
}

// addDetectFlags registers the silence detection flags.
func addDetectFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().Float64Var(&f.threshold, "threshold", pipeline.DefaultSilenceThresholdDB, "Silence noise floor in dBFS (negative)")
	cmd.Flags().Float64Var(&f.minSilence, "min-silence", pipeline.DefaultMinSilence, "Shortest silence to cut, in seconds")
	cmd.Flags().BoolVar(&f.noCut, "no-cut", false, "Keep silences, only enhance or copy")
}

// addRenderFlags registers the flags that shape the rendered output.
func addRenderFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().Float64Var(&f.margin, "margin", pipeline.DefaultCutMargin, "Speech padding kept around each cut, in seconds")
	cmd.Flags().BoolVar(&f.noEnhance, "no-enhance", false, "Skip audio denoising and loudness normalization")
}

// addSpeechFlags registers the recognition flags.
func addSpeechFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Speech language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().BoolVar(&f.cleanup, "cleanup", false, "Clean up the transcript with a chat model")
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *pipeline.Config, f runFlags) {
	changed := cmd.Flags().Changed
	if changed("threshold") {
		cfg.SilenceThresholdDB = f.threshold
	}
	if changed("min-silence") {
		cfg.MinSilence = f.minSilence
	}
	if changed("margin") {
		cfg.CutMargin = f.margin
	}
	if changed("no-enhance") {
		cfg.Enhance = !f.noEnhance
	}
	if changed("no-cut") {
		cfg.CutSilences = !f.noCut
	}
	if changed("language") {
		cfg.Language = f.language
	}
	if changed("cleanup") {
		cfg.Cleanup = f.cleanup
	}
}

// logLevel returns the --log-level flag when set, otherwise the setting.
func logLevel(cmd *cobra.Command, setting string) string {
	if fl := cmd.Flag("log-level"); fl != nil && fl.Changed {
		return fl.Value.String()
	}
	return setting
}

// selectRecognizer resolves the speech backend. An empty setting picks
// openai when an API key is present and the local whisper CLI otherwise.
func selectRecognizer(setting, openaiKey string) (string, error) {
	switch backend := strings.ToLower(strings.TrimSpace(setting)); backend {
	case "":
		if openaiKey != "" {
			return RecognizerOpenAI, nil
		}
		return RecognizerWhisper, nil
	case RecognizerOpenAI, RecognizerWhisper:
		return backend, nil
	default:
		return "", fmt.Errorf("%w: %q (use %s or %s)", ErrUnknownRecognizer, setting, RecognizerOpenAI, RecognizerWhisper)
	}
}

// checkInput verifies that path names a readable regular file.
func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	return nil
}

// session is everything a command needs to start runs.
type session struct {
	cfg        pipeline.Config
	log        zerolog.Logger
	transcoder media.Transcoder
	recognizer speech.Recognizer
	cleaner    cleanup.Cleaner
}

// newSession loads settings, applies flags, and builds the run components.
// Validation order: settings -> run config -> recognizer -> cleaner -> ffmpeg.
// The recognizer and cleaner are only built when withSpeech is set.
func newSession(cmd *cobra.Command, env *Env, f runFlags, withSpeech bool) (*session, error) {
	ctx := cmd.Context()

	settings, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := newLogger(env.Stderr, logLevel(cmd, settings.LogLevel))

	cfg := settings.Pipeline()
	applyFlags(cmd, &cfg, f)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log}

	if withSpeech {
		openaiKey := env.Getenv(EnvOpenAIAPIKey)
		backend, err := selectRecognizer(settings.Recognizer, openaiKey)
		if err != nil {
			return nil, err
		}
		s.recognizer, err = env.RecognizerFactory.NewRecognizer(backend, openaiKey, component(log, "speech"))
		if err != nil {
			return nil, err
		}
		log.Debug().Str("recognizer", backend).Msg("speech backend selected")

		if cfg.Cleanup {
			s.cleaner = newCleaner(env, settings.CleanupBaseURL, settings.CleanupModel, cfg.Language, log)
			if s.cleaner == nil {
				s.cfg.Cleanup = false
			}
		}
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx, component(log, "ffmpeg"))
	if err != nil {
		return nil, err
	}
	s.transcoder = env.TranscoderFactory.NewTranscoder(ctx, ffmpegPath, settings.VideoCodec, component(log, "media"))

	return s, nil
}

// newCleaner builds the cleanup client, or returns nil with a warning when
// cleanup cannot run. Cleanup never blocks a run.
func newCleaner(env *Env, baseURL, model, language string, log zerolog.Logger) cleanup.Cleaner {
	apiKey := env.Getenv(EnvCleanupAPIKey)
	if apiKey == "" {
		apiKey = env.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		log.Warn().Msgf("transcript cleanup disabled: set %s or %s", EnvCleanupAPIKey, EnvOpenAIAPIKey)
		return nil
	}

	c, err := env.CleanerFactory.NewCleaner(apiKey, CleanerSettings{
		BaseURL:  baseURL,
		Model:    model,
		Language: language,
	}, component(log, "cleanup"))
	if err != nil {
		log.Warn().Err(err).Msg("transcript cleanup disabled")
		return nil
	}
	return c
}

// orchestrator returns a pipeline reporting to obs.
func (s *session) orchestrator(obs pipeline.Observer) *pipeline.Orchestrator {
	opts := []pipeline.Option{
		pipeline.WithObserver(obs),
		pipeline.WithLogger(component(s.log, "pipeline")),
	}
	if s.cleaner != nil {
		opts = append(opts, pipeline.WithCleaner(s.cleaner))
	}
	return pipeline.New(s.transcoder, s.recognizer, opts...)
}
