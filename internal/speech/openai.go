package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-videocut/internal/apierr"
	"github.com/alnah/go-videocut/internal/lang"
)

// Default OpenAI settings. whisper-1 is the only audio model that returns
// verbose_json with word timestamps.
const (
	defaultOpenAIModel = openai.Whisper1

	// defaultChunkSeconds keeps each 16-bit mono WAV upload under the API's
	// 25MB limit (10 min = ~19MB).
	defaultChunkSeconds = 600

	// MaxRecommendedParallel is the recommended upper limit for concurrent
	// uploads. Higher values may trigger rate limiting.
	MaxRecommendedParallel = 10

	defaultMaxParallel = 3
	defaultMaxRetries  = 5
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// audioTranscriber is the subset of *openai.Client used here.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Recognizer       = (*OpenAIRecognizer)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAIRecognizer recognizes speech with the OpenAI audio API. Long inputs
// are split into chunks that are uploaded in parallel; transient API errors
// are retried with exponential backoff.
type OpenAIRecognizer struct {
	client       audioTranscriber
	model        string
	chunkSeconds int
	maxParallel  int
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	log          zerolog.Logger
}

// OpenAIOption configures an OpenAIRecognizer.
type OpenAIOption func(*OpenAIRecognizer)

// WithModel sets the transcription model.
func WithModel(model string) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithChunkSeconds sets the maximum audio length per upload.
func WithChunkSeconds(n int) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if n > 0 {
			r.chunkSeconds = n
		}
	}
}

// WithMaxParallel limits concurrent uploads.
func WithMaxParallel(n int) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if n > 0 {
			r.maxParallel = n
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if base > 0 {
			r.baseDelay = base
		}
		if max > 0 {
			r.maxDelay = max
		}
	}
}

// WithOpenAILogger sets the logger.
func WithOpenAILogger(l zerolog.Logger) OpenAIOption {
	return func(r *OpenAIRecognizer) { r.log = l }
}

// NewOpenAIRecognizer creates an OpenAIRecognizer backed by client.
func NewOpenAIRecognizer(client *openai.Client, opts ...OpenAIOption) *OpenAIRecognizer {
	return newOpenAIRecognizer(client, opts...)
}

func newOpenAIRecognizer(client audioTranscriber, opts ...OpenAIOption) *OpenAIRecognizer {
	r := &OpenAIRecognizer{
		client:       client,
		model:        defaultOpenAIModel,
		chunkSeconds: defaultChunkSeconds,
		maxParallel:  defaultMaxParallel,
		maxRetries:   defaultMaxRetries,
		baseDelay:    defaultBaseDelay,
		maxDelay:     defaultMaxDelay,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize uploads samples in chunks and stitches the results back onto
// one timeline. Results keep chunk order; any failed chunk fails the call.
func (r *OpenAIRecognizer) Recognize(ctx context.Context, samples []float32, opts Options) ([]Segment, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	chunkLen := r.chunkSeconds * SampleRate
	var chunks [][]float32
	for start := 0; start < len(samples); start += chunkLen {
		chunks = append(chunks, samples[start:min(start+chunkLen, len(samples))])
	}

	results := make([][]Segment, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxParallel)

	for i, chunk := range chunks {
		offset := float64(i*chunkLen) / SampleRate
		g.Go(func() error {
			resp, err := r.recognizeChunk(gctx, chunk, opts)
			if err != nil {
				return fmt.Errorf("chunk %d at %.0fs: %w", i, offset, err)
			}
			results[i] = segmentsFromResponse(resp, offset)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("recognize: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	var segments []Segment
	for _, s := range results {
		segments = append(segments, s...)
	}
	r.log.Debug().Int("chunks", len(chunks)).Int("segments", len(segments)).Msg("openai recognition complete")
	return segments, nil
}

// recognizeChunk uploads one in-memory WAV with retry.
func (r *OpenAIRecognizer) recognizeChunk(ctx context.Context, samples []float32, opts Options) (openai.AudioResponse, error) {
	var wav bytes.Buffer
	if err := EncodeWAV(&wav, samples, SampleRate, 1); err != nil {
		return openai.AudioResponse{}, err
	}

	b := apierr.Backoff{
		MaxRetries: r.maxRetries,
		BaseDelay:  r.baseDelay,
		MaxDelay:   r.maxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			r.log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("transcription request failed, retrying")
		},
	}

	return apierr.Retry(ctx, b, func() (openai.AudioResponse, error) {
		req := openai.AudioRequest{
			Model:    r.model,
			FilePath: "audio.wav", // names the upload; Reader supplies the data
			Reader:   bytes.NewReader(wav.Bytes()),
			Format:   openai.AudioResponseFormatVerboseJSON,
			Prompt:   opts.Prompt,
			Language: lang.BaseCode(opts.Language),
			TimestampGranularities: []openai.TranscriptionTimestampGranularity{
				openai.TranscriptionTimestampGranularityWord,
				openai.TranscriptionTimestampGranularitySegment,
			},
		}
		resp, err := r.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, apierr.Classify(err)
		}
		return resp, nil
	})
}

// segmentsFromResponse assigns the response's word list to its segments in
// order: a word belongs to the first segment it starts before the end of.
// The last segment takes any remainder. offset shifts every timestamp.
func segmentsFromResponse(resp openai.AudioResponse, offset float64) []Segment {
	words := resp.Words
	if len(resp.Segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" && len(words) == 0 {
			return nil
		}
		seg := Segment{Text: text, Start: offset, End: offset}
		if len(words) > 0 {
			seg.Start = words[0].Start + offset
			seg.End = words[len(words)-1].End + offset
		}
		for _, w := range words {
			seg.Tokens = append(seg.Tokens, Token{Text: " " + w.Word, Start: w.Start + offset, End: w.End + offset})
		}
		return []Segment{seg}
	}

	segments := make([]Segment, 0, len(resp.Segments))
	next := 0
	last := len(resp.Segments) - 1
	for i, s := range resp.Segments {
		seg := Segment{
			Start: s.Start + offset,
			End:   s.End + offset,
			Text:  strings.TrimSpace(s.Text),
		}
		for next < len(words) && (i == last || words[next].Start < s.End) {
			w := words[next]
			// Words arrive without separators; a leading space marks each as
			// a word start so none are glued together.
			seg.Tokens = append(seg.Tokens, Token{Text: " " + w.Word, Start: w.Start + offset, End: w.End + offset})
			next++
		}
		segments = append(segments, seg)
	}
	return segments
}
