package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alnah/go-videocut/internal/format"
	"github.com/alnah/go-videocut/internal/pipeline"
)

// checkOutputFree fails early when path already exists, before any media
// work is spent on a result that could not be written.
func checkOutputFree(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
	}
	return nil
}

// writeJSON writes v as indented JSON to a new file at path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path string, content []byte) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.Write(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}

// printSummary writes the outcome of a run for people.
func printSummary(w io.Writer, res *pipeline.Result) {
	st := res.Stats
	_, _ = fmt.Fprintf(w, "Saved %s (%s)\n", res.OutputPath, res.Mode)
	_, _ = fmt.Fprintf(w, "  Duration  %s -> %s\n", format.Seconds(st.OriginalDuration), format.Seconds(st.ProcessedDuration))
	if res.Mode == pipeline.StateCuttingSilences {
		_, _ = fmt.Fprintf(w, "  Removed   %s of silence (%s)\n",
			format.Seconds(st.RemovedSilence), format.Percent(st.SilencePercentage))
	}
	_, _ = fmt.Fprintf(w, "  Size      %s\n", format.Size(st.OutputSizeBytes))
	if res.CleanupApplied {
		_, _ = fmt.Fprintln(w, "  Transcript cleaned up")
	}
}
