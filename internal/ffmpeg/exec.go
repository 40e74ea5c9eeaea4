package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// defaultShutdownTimeout bounds how long a canceled ffmpeg gets to finalize
// its output after receiving 'q' before it is killed.
const defaultShutdownTimeout = 5 * time.Second

// runFn runs a command to completion and returns its combined output.
type runFn func(ctx context.Context, path string, args []string) (string, error)

// streamFn runs a command, calling onLine for every stdout line, and returns
// its stderr once the command exits.
type streamFn func(ctx context.Context, path string, args []string, shutdown time.Duration, onLine func(string)) (string, error)

// ProgressFunc receives the completed fraction of a long-running job, in [0, 1].
type ProgressFunc func(fraction float64)

// Executor runs a resolved ffmpeg binary.
type Executor struct {
	path     string
	run      runFn
	stream   streamFn
	shutdown time.Duration
	log      zerolog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunFunc replaces the blocking runner (for testing).
func WithRunFunc(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// WithStreamFunc replaces the streaming runner used by RunProgress (for testing).
func WithStreamFunc(fn streamFn) ExecutorOption {
	return func(e *Executor) { e.stream = fn }
}

// WithShutdownTimeout sets how long a canceled job may take to exit after 'q'.
func WithShutdownTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.shutdown = d }
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l zerolog.Logger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

// NewExecutor creates an Executor bound to the ffmpeg binary at path.
func NewExecutor(path string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		path:     path,
		run:      defaultRun,
		stream:   runGraceful,
		shutdown: defaultShutdownTimeout,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the ffmpeg binary the executor runs.
func (e *Executor) Path() string {
	return e.path
}

// Run executes ffmpeg and returns its combined output; probe information and
// filter logs go to stderr, the version banner to stdout. The output is
// returned even when the exit status is non-zero: ffmpeg exits 1 for
// "-i file" without an output, and callers still need the log.
func (e *Executor) Run(ctx context.Context, args []string) (string, error) {
	e.log.Debug().Strs("args", args).Msg("ffmpeg run")
	return e.run(ctx, e.path, args)
}

// RunProgress executes a transcoding job and reports progress against total
// seconds of output. "-progress pipe:1 -nostats" is prepended so ffmpeg emits
// machine-readable progress on stdout.
//
// On cancellation ffmpeg is asked to stop with 'q' so the container is
// finalized, and ctx.Err() is returned; if it does not exit within the
// shutdown timeout it is killed and ErrTimeout is returned.
func (e *Executor) RunProgress(ctx context.Context, args []string, total float64, report ProgressFunc) error {
	full := append([]string{"-progress", "pipe:1", "-nostats"}, args...)
	e.log.Debug().Strs("args", full).Float64("total", total).Msg("ffmpeg run with progress")

	onLine := func(line string) {
		if report == nil || total <= 0 {
			return
		}
		if seconds, ok := parseProgressLine(line); ok {
			report(min(max(seconds/total, 0), 1))
		}
	}

	stderr, err := e.stream(ctx, e.path, full, e.shutdown, onLine)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrTimeout) {
			return ctxErr
		}
		return fmt.Errorf("%w\nOutput: %s", err, tail(stderr, maxErrorOutput))
	}
	return nil
}

// parseProgressLine extracts the encoded position from a "-progress" line.
// ffmpeg reports out_time_us and, despite its name, out_time_ms in microseconds.
func parseProgressLine(line string) (float64, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok || (key != "out_time_us" && key != "out_time_ms") {
		return 0, false
	}
	us, err := strconv.ParseInt(value, 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return float64(us) / 1e6, true
}

// maxErrorOutput caps how much stderr is attached to an error.
const maxErrorOutput = 4096

// tail returns the last n bytes of s. ffmpeg prints the failing filter or
// codec at the end of its log, so the tail is the useful part.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// defaultRun is the production runner.
func defaultRun(ctx context.Context, path string, args []string) (string, error) {
	// #nosec G204 -- path comes from Resolver, args are built internally
	output, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	return string(output), err
}

// runGraceful is the production streaming runner. Stdout is scanned line by
// line; cancellation sends 'q' on stdin and falls back to Kill after shutdown.
func runGraceful(ctx context.Context, path string, args []string, shutdown time.Duration, onLine func(string)) (string, error) {
	// #nosec G204 -- path comes from Resolver, args are built internally
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("create stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return "", fmt.Errorf("start %s: %w", path, err)
	}

	scanned := make(chan struct{})
	go func() {
		defer close(scanned)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			onLine(scanner.Text())
		}
		_, _ = io.Copy(io.Discard, stdout)
	}()

	done := make(chan error, 1)
	go func() {
		<-scanned
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		_ = stdin.Close()
		if err != nil {
			return stderr.String(), fmt.Errorf("ffmpeg: %w", err)
		}
		return stderr.String(), nil

	case <-ctx.Done():
		_, _ = io.WriteString(stdin, "q")
		_ = stdin.Close()

		select {
		case <-done:
			return stderr.String(), ctx.Err()
		case <-time.After(shutdown):
			_ = cmd.Process.Kill()
			<-done
			return stderr.String(), fmt.Errorf("%w: killed after %v", ErrTimeout, shutdown)
		}
	}
}
