package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/alnah/go-videocut/internal/lang"
)

// Environment variables that pin the local recognizer.
const (
	EnvWhisperModel = "WHISPER_MODEL"
	EnvWhisperCLI   = "WHISPER_CLI"
)

const modelFileName = "ggml-base.bin"

// whisperBinaries are the names whisper.cpp installs its CLI under.
var whisperBinaries = []string{"whisper-cli", "whisper-cpp"}

// Compile-time interface compliance check.
var _ Recognizer = (*WhisperCLI)(nil)

// WhisperCLI recognizes speech by running the whisper.cpp command-line tool
// on a temporary WAV file and reading its full JSON output.
type WhisperCLI struct {
	binary  string
	model   string
	threads int
	run     commandRunner
	log     zerolog.Logger
}

// WhisperOption configures a WhisperCLI.
type WhisperOption func(*WhisperCLI)

// WithThreads sets the number of decoding threads. Zero keeps whisper's default.
func WithThreads(n int) WhisperOption {
	return func(w *WhisperCLI) {
		if n > 0 {
			w.threads = n
		}
	}
}

// WithWhisperLogger sets the logger.
func WithWhisperLogger(l zerolog.Logger) WhisperOption {
	return func(w *WhisperCLI) { w.log = l }
}

// withCommandRunner replaces process execution (for testing).
func withCommandRunner(r commandRunner) WhisperOption {
	return func(w *WhisperCLI) { w.run = r }
}

// NewWhisperCLI creates a recognizer running binary with the given model file.
// Use FindWhisperCLI and FindModel to locate both.
func NewWhisperCLI(binary, model string, opts ...WhisperOption) *WhisperCLI {
	w := &WhisperCLI{
		binary: binary,
		model:  model,
		run:    runCommand,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Recognize writes samples to a scratch WAV, runs whisper.cpp with token
// timestamps, and parses the JSON it leaves next to the WAV.
func (w *WhisperCLI) Recognize(ctx context.Context, samples []float32, opts Options) ([]Segment, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	dir, err := os.MkdirTemp("", "videocut-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	wavPath := filepath.Join(dir, "audio.wav")
	var wav bytes.Buffer
	if err := EncodeWAV(&wav, samples, SampleRate, 1); err != nil {
		return nil, err
	}
	if err := os.WriteFile(wavPath, wav.Bytes(), 0600); err != nil {
		return nil, fmt.Errorf("write scratch wav: %w", err)
	}

	outBase := filepath.Join(dir, "audio")
	args := []string{
		"-m", w.model,
		"-f", wavPath,
		"-l", lang.RecognizerCode(opts.Language),
		"-ojf",
		"-of", outBase,
		"-np",
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	if w.threads > 0 {
		args = append(args, "-t", fmt.Sprint(w.threads))
	}

	w.log.Debug().Str("binary", w.binary).Strs("args", args).Msg("running whisper.cpp")
	output, err := w.run(ctx, w.binary, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("recognize: %w", ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v\nOutput: %s", ErrRecognitionFailed, err, tail(string(output), 2048))
	}

	data, err := os.ReadFile(outBase + ".json") // #nosec G304 -- path inside our scratch directory
	if err != nil {
		return nil, fmt.Errorf("%w: read whisper output: %v", ErrRecognitionFailed, err)
	}
	return parseWhisperJSON(data)
}

// whisperOutput is the subset of whisper.cpp's -ojf document we read.
// Offsets are milliseconds.
type whisperOutput struct {
	Transcription []struct {
		Offsets whisperOffsets `json:"offsets"`
		Text    string         `json:"text"`
		Tokens  []struct {
			Text    string         `json:"text"`
			Offsets whisperOffsets `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

type whisperOffsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func parseWhisperJSON(data []byte) ([]Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parse whisper output: %v", ErrRecognitionFailed, err)
	}

	segments := make([]Segment, 0, len(out.Transcription))
	for _, s := range out.Transcription {
		seg := Segment{
			Start: msToSeconds(s.Offsets.From),
			End:   msToSeconds(s.Offsets.To),
			Text:  s.Text,
		}
		for _, tok := range s.Tokens {
			seg.Tokens = append(seg.Tokens, Token{
				Text:  tok.Text,
				Start: msToSeconds(tok.Offsets.From),
				End:   msToSeconds(tok.Offsets.To),
			})
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// ---------------------------------------------------------------------------
// Discovery
// ---------------------------------------------------------------------------

// Locator finds the whisper.cpp binary and model on this machine.
type Locator struct {
	env  envProvider
	stat statFunc
}

// NewLocator creates a Locator using the process environment.
func NewLocator() *Locator {
	return &Locator{env: osEnvProvider{}, stat: os.Stat}
}

// FindWhisperCLI returns WHISPER_CLI when set, else the first whisper.cpp
// binary name found on PATH.
func (l *Locator) FindWhisperCLI() (string, error) {
	if p := l.env.Getenv(EnvWhisperCLI); p != "" {
		if _, err := l.stat(p); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but the file does not exist",
				ErrRecognizerNotFound, EnvWhisperCLI, p)
		}
		return p, nil
	}
	for _, name := range whisperBinaries {
		if p, err := l.env.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: install whisper.cpp (brew install whisper-cpp) or set %s",
		ErrRecognizerNotFound, EnvWhisperCLI)
}

// FindModel returns the first existing model file, in order:
//  1. WHISPER_MODEL (an error if set but missing)
//  2. models/ggml-base.bin
//  3. ../models/ggml-base.bin
//  4. ~/.go-videocut/models/ggml-base.bin
func (l *Locator) FindModel() (string, error) {
	if p := l.env.Getenv(EnvWhisperModel); p != "" {
		if _, err := l.stat(p); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but the file does not exist",
				ErrModelNotFound, EnvWhisperModel, p)
		}
		return p, nil
	}

	candidates := []string{
		filepath.Join("models", modelFileName),
		filepath.Join("..", "models", modelFileName),
	}
	if home, err := l.env.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".go-videocut", "models", modelFileName))
	}

	for _, p := range candidates {
		if _, err := l.stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: looked in %v; download %s from huggingface.co/ggerganov/whisper.cpp or set %s",
		ErrModelNotFound, candidates, modelFileName, EnvWhisperModel)
}
