package cli

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alnah/go-videocut/internal/cleanup"
	"github.com/alnah/go-videocut/internal/config"
	"github.com/alnah/go-videocut/internal/media"
	"github.com/alnah/go-videocut/internal/speech"
	"github.com/alnah/go-videocut/internal/timeline"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(ctx context.Context) (string, error)

	mu           sync.Mutex
	resolveCalls int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context, _ zerolog.Logger) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return testSettings(), nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock TranscoderFactory + Transcoder
// ---------------------------------------------------------------------------

type transcoderCall struct {
	FFmpegPath string
	VideoCodec string
}

type mockTranscoderFactory struct {
	NewTranscoderFunc func(ffmpegPath, videoCodec string) media.Transcoder

	mu    sync.Mutex
	calls []transcoderCall

	transcoder *mockTranscoder
}

func (m *mockTranscoderFactory) NewTranscoder(_ context.Context, ffmpegPath, videoCodec string, _ zerolog.Logger) media.Transcoder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, transcoderCall{FFmpegPath: ffmpegPath, VideoCodec: videoCodec})

	if m.NewTranscoderFunc != nil {
		return m.NewTranscoderFunc(ffmpegPath, videoCodec)
	}
	if m.transcoder == nil {
		m.transcoder = &mockTranscoder{}
	}
	return m.transcoder
}

func (m *mockTranscoderFactory) Calls() []transcoderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcoderCall(nil), m.calls...)
}

// mockTranscoder reports 10 s inputs with silences at 2-3 s and 5-7 s.
// Outputs named *_edited.mp4 probe as 6.4 s. Every output is a real file.
type mockTranscoder struct {
	ProbeFunc  func(ctx context.Context, input string) (float64, error)
	DetectFunc func(ctx context.Context, input string) ([]timeline.Interval, error)
	CutFunc    func(ctx context.Context, input string, keep []timeline.Interval) error

	mu      sync.Mutex
	calls   []string
	cutKeep [][]timeline.Interval
	enhance []bool
}

func (m *mockTranscoder) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockTranscoder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockTranscoder) CutKeep() [][]timeline.Interval {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]timeline.Interval(nil), m.cutKeep...)
}

func (m *mockTranscoder) Enhance() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.enhance...)
}

func (m *mockTranscoder) Probe(ctx context.Context, input string) (float64, error) {
	m.record("probe")
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, input)
	}
	if strings.HasSuffix(input, "_edited.mp4") {
		return 6.4, nil
	}
	return 10, nil
}

func (m *mockTranscoder) DetectSilences(ctx context.Context, input string, _, _ float64) ([]timeline.Interval, error) {
	m.record("detect")
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, input)
	}
	return []timeline.Interval{{Start: 2, End: 3}, {Start: 5, End: 7}}, nil
}

func (m *mockTranscoder) ExtractPCM(_ context.Context, _, output string, _, _ int) error {
	m.record("extract")
	// Two silent f32le samples.
	return os.WriteFile(output, make([]byte, 8), 0o600)
}

func (m *mockTranscoder) CutAndExport(ctx context.Context, input, output string, keep []timeline.Interval, enhance bool, report media.ProgressFunc) error {
	m.record("cut")
	m.mu.Lock()
	m.cutKeep = append(m.cutKeep, keep)
	m.enhance = append(m.enhance, enhance)
	m.mu.Unlock()

	if m.CutFunc != nil {
		if err := m.CutFunc(ctx, input, keep); err != nil {
			return err
		}
	}
	if report != nil {
		report(0.5)
		report(1)
	}
	return os.WriteFile(output, []byte("edited video"), 0o600)
}

func (m *mockTranscoder) EnhanceAudio(_ context.Context, _, output string) error {
	m.record("enhance")
	return os.WriteFile(output, []byte("aac"), 0o600)
}

func (m *mockTranscoder) Mux(_ context.Context, _, _, output string) error {
	m.record("mux")
	return os.WriteFile(output, []byte("muxed"), 0o600)
}

func (m *mockTranscoder) Copy(_ context.Context, _, output string) error {
	m.record("copy")
	return os.WriteFile(output, []byte("copied"), 0o600)
}

// ---------------------------------------------------------------------------
// Mock RecognizerFactory + Recognizer
// ---------------------------------------------------------------------------

type recognizerCall struct {
	Backend string
	APIKey  string
}

type mockRecognizerFactory struct {
	NewRecognizerFunc func(backend, apiKey string) (speech.Recognizer, error)

	mu    sync.Mutex
	calls []recognizerCall
}

func (m *mockRecognizerFactory) NewRecognizer(backend, apiKey string, _ zerolog.Logger) (speech.Recognizer, error) {
	m.mu.Lock()
	m.calls = append(m.calls, recognizerCall{Backend: backend, APIKey: apiKey})
	m.mu.Unlock()

	if m.NewRecognizerFunc != nil {
		return m.NewRecognizerFunc(backend, apiKey)
	}
	return &mockRecognizer{}, nil
}

func (m *mockRecognizerFactory) Calls() []recognizerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recognizerCall(nil), m.calls...)
}

// mockRecognizer returns "hello world again" spread over a 10 s input.
type mockRecognizer struct {
	RecognizeFunc func(ctx context.Context, opts speech.Options) ([]speech.Segment, error)

	mu    sync.Mutex
	calls []speech.Options
}

func (m *mockRecognizer) Recognize(ctx context.Context, _ []float32, opts speech.Options) ([]speech.Segment, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()

	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, opts)
	}
	return []speech.Segment{{
		Start: 0, End: 9, Text: " hello world again",
		Tokens: []speech.Token{
			{Text: " hello", Start: 0.5, End: 1.0},
			{Text: " world", Start: 5.5, End: 6.0},
			{Text: " again", Start: 8.0, End: 8.5},
		},
	}}, nil
}

func (m *mockRecognizer) Calls() []speech.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]speech.Options(nil), m.calls...)
}

// ---------------------------------------------------------------------------
// Mock CleanerFactory + Cleaner
// ---------------------------------------------------------------------------

type cleanerCall struct {
	APIKey   string
	Settings CleanerSettings
}

type mockCleanerFactory struct {
	NewCleanerFunc func(apiKey string, s CleanerSettings) (cleanup.Cleaner, error)

	mu    sync.Mutex
	calls []cleanerCall
}

func (m *mockCleanerFactory) NewCleaner(apiKey string, s CleanerSettings, _ zerolog.Logger) (cleanup.Cleaner, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cleanerCall{APIKey: apiKey, Settings: s})
	m.mu.Unlock()

	if m.NewCleanerFunc != nil {
		return m.NewCleanerFunc(apiKey, s)
	}
	return &mockCleaner{}, nil
}

func (m *mockCleanerFactory) Calls() []cleanerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cleanerCall(nil), m.calls...)
}

// mockCleaner capitalizes every word, keeping the word count.
type mockCleaner struct {
	mu    sync.Mutex
	calls int
}

func (m *mockCleaner) Clean(_ context.Context, text string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	words := strings.Fields(text)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " "), nil
}

func (m *mockCleaner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Compile-time interface verification.
var (
	_ FFmpegResolver    = (*mockFFmpegResolver)(nil)
	_ ConfigLoader      = (*mockConfigLoader)(nil)
	_ TranscoderFactory = (*mockTranscoderFactory)(nil)
	_ RecognizerFactory = (*mockRecognizerFactory)(nil)
	_ CleanerFactory    = (*mockCleanerFactory)(nil)
	_ media.Transcoder  = (*mockTranscoder)(nil)
	_ speech.Recognizer = (*mockRecognizer)(nil)
	_ cleanup.Cleaner   = (*mockCleaner)(nil)
)
