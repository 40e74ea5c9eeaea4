package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// deriveTranscriptPath converts a video path to its transcript path.
// Example: "talk.mp4" -> "talk.transcript.json"
func deriveTranscriptPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".transcript.json"
}

// transcribeOptions holds validated transcribe command options.
type transcribeOptions struct {
	input  string
	output string
	events string
	flags  runFlags
}

// parseTranscribeOptions validates options and fills in the default output.
func parseTranscribeOptions(input, output, events string, flags runFlags) (transcribeOptions, error) {
	if err := checkEventFormat(events); err != nil {
		return transcribeOptions{}, err
	}
	if output == "" {
		output = deriveTranscriptPath(input)
	}
	return transcribeOptions{input: input, output: output, events: events, flags: flags}, nil
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		flags  runFlags
		output string
		events string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <video>",
		Short: "Transcribe a video for editing",
		Long: `Transcribe a video without cutting it.

The result lists every word with its start and end time on the original
timeline. Delete the words you do not want from the "words" array, then
render the rest with: videocut export <video> --transcript <file>`,
		Example: `  videocut transcribe talk.mp4
  videocut transcribe talk.mp4 -l en --cleanup -o talk.words.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseTranscribeOptions(args[0], output, events, flags)
			if err != nil {
				return err
			}
			return runTranscribe(cmd, env, opts)
		},
	}

	addSpeechFlags(cmd, &flags)
	cmd.Flags().StringVar(&events, "events", EventsText, "Progress output: text (stderr) or json (stdout)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>.transcript.json)")

	return cmd
}

// runTranscribe transcribes one input and writes the word list.
// Validation order: input exists -> output free -> settings -> backends.
func runTranscribe(cmd *cobra.Command, env *Env, opts transcribeOptions) error {
	if err := checkInput(opts.input); err != nil {
		return err
	}
	if err := checkOutputFree(opts.output); err != nil {
		return err
	}

	s, err := newSession(cmd, env, opts.flags, true)
	if err != nil {
		return err
	}

	printer := newEventPrinter(env, opts.events, false)
	res, err := s.orchestrator(printer.observer(opts.input)).Transcribe(cmd.Context(), opts.input, s.cfg)
	if err != nil {
		return err
	}

	if err := writeJSON(opts.output, res); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Stderr, "Transcript saved to %s (%d words)\n", opts.output, len(res.Words))
	return nil
}
