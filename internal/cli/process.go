package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-videocut/internal/pipeline"
)

// MaxParallel caps concurrent runs. Each run drives its own ffmpeg, which
// already uses every core while rendering.
const MaxParallel = 4

// clampParallel constrains the concurrent run count to [1, MaxParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxParallel {
		return MaxParallel
	}
	return n
}

// processOptions holds validated process command options.
type processOptions struct {
	inputs   []string
	output   string
	parallel int
	events   string
	flags    runFlags
}

// parseProcessOptions validates everything that needs no file system access.
func parseProcessOptions(inputs []string, output string, parallel int, events string, flags runFlags) (processOptions, error) {
	if err := checkEventFormat(events); err != nil {
		return processOptions{}, err
	}
	if output != "" && len(inputs) > 1 {
		return processOptions{}, ErrBatchOutput
	}
	return processOptions{
		inputs:   inputs,
		output:   output,
		parallel: clampParallel(parallel),
		events:   events,
		flags:    flags,
	}, nil
}

// ProcessCmd creates the process command.
// The env parameter provides injectable dependencies for testing.
func ProcessCmd(env *Env) *cobra.Command {
	var (
		flags    runFlags
		output   string
		parallel int
		events   string
	)

	cmd := &cobra.Command{
		Use:   "process <video>...",
		Short: "Transcribe a video and cut its silences",
		Long: `Transcribe a video, detect its silences, and render a trimmed copy.

Each input produces <name>_edited.mp4 next to it. The audio is denoised and
loudness-normalized unless --no-enhance is given. With --no-cut the video is
kept whole and only the audio is processed.

The transcript is reported twice: on the original timeline and mapped onto
the edited output. Write both with -o.`,
		Example: `  videocut process talk.mp4
  videocut process talk.mp4 --threshold -35 --min-silence 0.8 --margin 0.15
  videocut process talk.mp4 -l fr --cleanup -o talk.json
  videocut process a.mp4 b.mp4 c.mp4 --parallel 2
  videocut process talk.mp4 --events json | jq .kind`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseProcessOptions(args, output, parallel, events, flags)
			if err != nil {
				return err
			}
			return runProcess(cmd, env, opts)
		},
	}

	addDetectFlags(cmd, &flags)
	addRenderFlags(cmd, &flags)
	addSpeechFlags(cmd, &flags)
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, fmt.Sprintf("Inputs processed concurrently (1-%d)", MaxParallel))
	cmd.Flags().StringVar(&events, "events", EventsText, "Progress output: text (stderr) or json (stdout)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the run result as JSON (single input only)")

	return cmd
}

// runProcess runs the full pipeline on every input.
// Validation order: inputs exist -> result file free -> settings -> backends.
// The first failing run cancels the others.
func runProcess(cmd *cobra.Command, env *Env, opts processOptions) error {
	// === VALIDATION (fail-fast) ===

	for _, in := range opts.inputs {
		if err := checkInput(in); err != nil {
			return err
		}
	}
	if opts.output != "" {
		if err := checkOutputFree(opts.output); err != nil {
			return err
		}
	}

	// === SETUP ===

	s, err := newSession(cmd, env, opts.flags, true)
	if err != nil {
		return err
	}

	// === RUNS ===

	printer := newEventPrinter(env, opts.events, len(opts.inputs) > 1)
	results := make([]*pipeline.Result, len(opts.inputs))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.parallel)
	for i, in := range opts.inputs {
		g.Go(func() error {
			res, err := s.orchestrator(printer.observer(in)).Run(ctx, in, s.cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			results[i] = res
			return nil
		})
	}
	runErr := g.Wait()

	if opts.events == EventsText {
		for _, res := range results {
			if res != nil {
				printSummary(env.Stderr, res)
			}
		}
	}
	if runErr != nil {
		return runErr
	}

	if opts.output != "" {
		if err := writeJSON(opts.output, results[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(env.Stderr, "Result written to %s\n", opts.output)
	}
	return nil
}
