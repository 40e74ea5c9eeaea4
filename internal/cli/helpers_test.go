package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-videocut/internal/cleanup"
	"github.com/alnah/go-videocut/internal/config"
	"github.com/alnah/go-videocut/internal/speech"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	transcoders    *mockTranscoderFactory
	transcoder     *mockTranscoder
	recognizers    *mockRecognizerFactory
	recognizer     *mockRecognizer
	cleaners       *mockCleanerFactory
	cleaner        *mockCleaner
}

func newTestMocks() *testMocks {
	m := &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		transcoder:     &mockTranscoder{},
		recognizer:     &mockRecognizer{},
		cleaner:        &mockCleaner{},
	}
	m.transcoders = &mockTranscoderFactory{transcoder: m.transcoder}
	m.recognizers = &mockRecognizerFactory{
		NewRecognizerFunc: func(string, string) (speech.Recognizer, error) { return m.recognizer, nil },
	}
	m.cleaners = &mockCleanerFactory{
		NewCleanerFunc: func(string, CleanerSettings) (cleanup.Cleaner, error) { return m.cleaner, nil },
	}
	return m
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnvOptions configures a test environment.
type testEnvOptions struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time
	mocks  *testMocks
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withTestStdout(w io.Writer) testEnvOption {
	return func(o *testEnvOptions) { o.stdout = w }
}

func withTestStderr(w io.Writer) testEnvOption {
	return func(o *testEnvOptions) { o.stderr = w }
}

func withTestGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	options := &testEnvOptions{
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
		getenv: defaultTestEnv,
		now:    fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		mocks:  newTestMocks(),
	}

	for _, opt := range opts {
		opt(options)
	}

	env := &Env{
		Stdout:            options.stdout,
		Stderr:            options.stderr,
		Getenv:            options.getenv,
		Now:               options.now,
		FFmpegResolver:    options.mocks.ffmpegResolver,
		ConfigLoader:      options.mocks.configLoader,
		TranscoderFactory: options.mocks.transcoders,
		RecognizerFactory: options.mocks.recognizers,
		CleanerFactory:    options.mocks.cleaners,
	}

	return env, options.mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// testSettings returns valid settings with logging silenced.
func testSettings() config.Config {
	return config.Config{
		SilenceThresholdDB: -30,
		MinSilence:         0.5,
		CutMargin:          0.2,
		Enhance:            true,
		CutSilences:        true,
		CleanupTimeout:     time.Second,
		LogLevel:           "error",
	}
}

// settingsLoader returns a ConfigLoader serving cfg.
func settingsLoader(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) { return cfg, nil },
	}
}

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns an OpenAI API key.
func defaultTestEnv(key string) string {
	if key == EnvOpenAIAPIKey {
		return "test-openai-key"
	}
	return ""
}

// createTestVideo creates a placeholder video file in a fresh directory.
// The file is automatically cleaned up after the test.
func createTestVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake video content"), 0o600); err != nil {
		t.Fatalf("failed to create test video: %v", err)
	}
	return path
}

// execute runs cmd with args the way the root command would.
func execute(ctx context.Context, cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(ctx)
}
