package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-videocut/internal/media"
	"github.com/alnah/go-videocut/internal/timeline"
	"github.com/alnah/go-videocut/internal/transcript"
)

// parseKeepRanges parses "start-end" values in seconds.
// Example: "0-12.5" -> [0, 12.5)
func parseKeepRanges(specs []string) ([]timeline.Interval, error) {
	ranges := make([]timeline.Interval, 0, len(specs))
	for _, spec := range specs {
		a, b, ok := strings.Cut(strings.TrimSpace(spec), "-")
		if !ok {
			return nil, fmt.Errorf("%w %q: want start-end in seconds", ErrInvalidRange, spec)
		}
		start, err1 := strconv.ParseFloat(strings.TrimSpace(a), 64)
		end, err2 := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if err1 != nil || err2 != nil || math.IsNaN(start) || math.IsNaN(end) || math.IsInf(end, 0) {
			return nil, fmt.Errorf("%w %q: want start-end in seconds", ErrInvalidRange, spec)
		}
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w %q: end must follow a non-negative start", ErrInvalidRange, spec)
		}
		ranges = append(ranges, timeline.Interval{Start: start, End: end})
	}
	return ranges, nil
}

// editedTranscript is the part of a transcribe result export reads back.
// The word list wins when present, even empty; the full transcript is read
// only when the key is absent.
type editedTranscript struct {
	Duration   float64                `json:"duration_seconds"`
	Words      *[]transcript.Word     `json:"words"`
	Transcript *transcript.Transcript `json:"transcript"`
}

// loadKeepRanges derives keep ranges from the words left in an edited
// transcript file.
func loadKeepRanges(path string, margin float64) ([]timeline.Interval, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified transcript file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("cannot read transcript: %w", err)
	}

	var doc editedTranscript
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}

	var words []transcript.Word
	switch {
	case doc.Words != nil:
		words = *doc.Words
	case doc.Transcript != nil:
		words = doc.Transcript.Words()
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("transcript %s has no words left: %w", path, media.ErrNoKeepRanges)
	}

	// The export probes the real duration and clamps again.
	duration := doc.Duration
	if duration <= 0 {
		duration = math.Inf(1)
	}
	return transcript.KeepRangesFromWords(words, margin, duration), nil
}

// exportOptions holds validated export command options.
type exportOptions struct {
	input      string
	keep       []timeline.Interval
	transcript string
	events     string
	flags      runFlags
}

// parseExportOptions validates the keep source and parses explicit ranges.
func parseExportOptions(input string, keep []string, transcriptPath, events string, flags runFlags) (exportOptions, error) {
	if err := checkEventFormat(events); err != nil {
		return exportOptions{}, err
	}
	switch {
	case len(keep) > 0 && transcriptPath != "":
		return exportOptions{}, ErrKeepSourceConflict
	case len(keep) == 0 && transcriptPath == "":
		return exportOptions{}, ErrNoKeepSource
	}

	ranges, err := parseKeepRanges(keep)
	if err != nil {
		return exportOptions{}, err
	}
	return exportOptions{
		input:      input,
		keep:       ranges,
		transcript: transcriptPath,
		events:     events,
		flags:      flags,
	}, nil
}

// ExportCmd creates the export command.
// The env parameter provides injectable dependencies for testing.
func ExportCmd(env *Env) *cobra.Command {
	var (
		flags          runFlags
		keep           []string
		transcriptPath string
		events         string
	)

	cmd := &cobra.Command{
		Use:   "export <video>",
		Short: "Render chosen ranges of a video",
		Long: `Render only the given ranges of a video to <name>_edited.mp4.

Ranges come either from --keep (seconds, repeatable or comma-separated) or
from a transcript edited after "videocut transcribe": every word left in the
file is kept, padded by --margin on both sides.`,
		Example: `  videocut export talk.mp4 --keep 0-12.5 --keep 14-60
  videocut export talk.mp4 --keep 0-12.5,14-60 --no-enhance
  videocut export talk.mp4 --transcript talk.transcript.json --margin 0.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseExportOptions(args[0], keep, transcriptPath, events, flags)
			if err != nil {
				return err
			}
			return runExport(cmd, env, opts)
		},
	}

	addRenderFlags(cmd, &flags)
	cmd.Flags().StringSliceVarP(&keep, "keep", "k", nil, "Range to keep as start-end seconds (repeatable)")
	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Edited transcript whose remaining words are kept")
	cmd.Flags().StringVar(&events, "events", EventsText, "Progress output: text (stderr) or json (stdout)")
	cmd.MarkFlagsMutuallyExclusive("keep", "transcript")
	cmd.MarkFlagsOneRequired("keep", "transcript")

	return cmd
}

// runExport renders the chosen ranges of one input.
// Validation order: input exists -> settings -> ffmpeg -> keep ranges.
func runExport(cmd *cobra.Command, env *Env, opts exportOptions) error {
	if err := checkInput(opts.input); err != nil {
		return err
	}

	s, err := newSession(cmd, env, opts.flags, false)
	if err != nil {
		return err
	}

	keep := opts.keep
	if opts.transcript != "" {
		keep, err = loadKeepRanges(opts.transcript, s.cfg.CutMargin)
		if err != nil {
			return err
		}
		s.log.Debug().Int("ranges", len(keep)).Str("transcript", opts.transcript).Msg("keep ranges from transcript")
	}

	printer := newEventPrinter(env, opts.events, false)
	res, err := s.orchestrator(printer.observer(opts.input)).Export(cmd.Context(), opts.input, keep, s.cfg)
	if err != nil {
		return err
	}

	if opts.events == EventsText {
		printSummary(env.Stderr, res)
	}
	return nil
}
