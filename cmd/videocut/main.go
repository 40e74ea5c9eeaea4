package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-videocut/internal/apierr"
	"github.com/alnah/go-videocut/internal/cli"
	"github.com/alnah/go-videocut/internal/config"
	"github.com/alnah/go-videocut/internal/ffmpeg"
	"github.com/alnah/go-videocut/internal/interrupt"
	"github.com/alnah/go-videocut/internal/pipeline"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitInterrupt     = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels the runs, a second one exits at once.
	handler, ctx := interrupt.NewHandler(context.Background())

	rootCmd := newRootCmd(cli.DefaultEnv())
	err := rootCmd.ExecuteContext(ctx)
	handler.Stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// newRootCmd assembles the command tree around env.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "videocut",
		Short: "Cut silences from spoken-word video and keep a word-aligned transcript",
		Long: `videocut transcribes a video, detects silent spans, cuts them out with
a small speech margin, and writes the edited video next to the input
together with a transcript aligned to the edited timeline.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(cli.ProcessCmd(env))
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.ExportCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	kind := pipeline.KindOf(err)
	if kind == pipeline.KindCanceled {
		return ExitInterrupt
	}

	// Usage errors: bad flags, arguments, or flag values.
	if isCobraUsageError(err) ||
		errors.Is(err, cli.ErrInvalidRange) || errors.Is(err, cli.ErrInvalidEventFormat) ||
		errors.Is(err, cli.ErrNoKeepSource) || errors.Is(err, cli.ErrKeepSourceConflict) ||
		errors.Is(err, cli.ErrBatchOutput) {
		return ExitUsage
	}

	// Setup errors: missing binaries, models, or credentials.
	if kind == pipeline.KindMissingResource || errors.Is(err, cli.ErrUnknownRecognizer) ||
		errors.Is(err, ffmpeg.ErrUnsupportedPlatform) || errors.Is(err, ffmpeg.ErrChecksumMismatch) ||
		errors.Is(err, ffmpeg.ErrDownloadFailed) {
		return ExitSetup
	}

	// Validation errors: inputs, outputs, settings.
	if kind == pipeline.KindInvalidConfig ||
		errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrOutputExists) ||
		errors.Is(err, config.ErrUnknownKey) || errors.Is(err, config.ErrInvalidValue) {
		return ExitValidation
	}

	// Transcription errors: the transcoder or recognizer failed.
	if kind == pipeline.KindExternalTool || errors.Is(err, ffmpeg.ErrTimeout) ||
		errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout) {
		return ExitTranscription
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"at least one of the flags", // One-required flag group violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
