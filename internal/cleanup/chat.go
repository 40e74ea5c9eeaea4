// Package cleanup asks a language model to repair recognizer output (split
// words, misspellings) and maps the repaired text back onto the original
// word timings.
package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-videocut/internal/apierr"
	"github.com/alnah/go-videocut/internal/lang"
)

// Chat completion defaults. Any OpenAI-compatible endpoint works; for Z.ai
// use base URL https://api.z.ai/api/paas/v4 and model GLM-4.7-Flash.
const (
	defaultModel       = openai.GPT4oMini
	defaultTemperature = 0.3

	// Fewer retries than recognition: Refine has its own overall timeout.
	defaultMaxRetries = 2
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 10 * time.Second

	defaultHTTPTimeout = 2 * time.Minute
)

const systemPrompt = "You are a transcription correction assistant. " +
	"Fix word fragments and spelling errors in speech-recognition output " +
	"while keeping the same words in the same order."

const userPromptTemplate = `Fix this transcription. Recognition split some words into fragments that need to be joined.

Rules:
1. Join word fragments (e.g. "dis po si tive" -> "dispositive", "busi ness" -> "business")
2. Fix obvious spelling errors
3. Keep the same approximate word count; do not add or remove content
4. Minimal punctuation
5. Return ONLY the corrected text, no explanations
%s
Original: %s

Corrected:`

// Cleaner repairs transcript text.
type Cleaner interface {
	// Clean returns a corrected version of text with roughly the same words.
	Clean(ctx context.Context, text string) (string, error)
}

// chatCompleter is the subset of *openai.Client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Cleaner       = (*ChatCleaner)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// ChatCleaner cleans text with a chat completion model.
type ChatCleaner struct {
	client     chatCompleter
	baseURL    string
	model      string
	language   string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        zerolog.Logger
}

// Option configures a ChatCleaner.
type Option func(*ChatCleaner)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *ChatCleaner) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *ChatCleaner) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLanguage tells the model which language the text is in.
func WithLanguage(code string) Option {
	return func(c *ChatCleaner) { c.language = code }
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *ChatCleaner) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(c *ChatCleaner) {
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *ChatCleaner) { c.log = l }
}

// withClient replaces the chat client (for testing).
func withClient(cc chatCompleter) Option {
	return func(c *ChatCleaner) { c.client = cc }
}

// NewChatCleaner creates a ChatCleaner. apiKey is required.
func NewChatCleaner(apiKey string, opts ...Option) (*ChatCleaner, error) {
	c := &ChatCleaner{
		model:      defaultModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client != nil {
		return c, nil
	}
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	c.client = openai.NewClientWithConfig(cfg)
	return c, nil
}

// Clean sends text to the model and returns its trimmed reply.
// Transient API errors are retried with exponential backoff.
func (c *ChatCleaner) Clean(ctx context.Context, text string) (string, error) {
	var hint string
	if c.language != "" {
		hint = fmt.Sprintf("6. The text is in %s\n", lang.DisplayName(c.language))
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: defaultTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptTemplate, hint, text)},
		},
	}

	b := apierr.Backoff{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("cleanup request failed, retrying")
		},
	}

	c.log.Debug().Str("model", c.model).Int("chars", len(text)).Msg("sending cleanup request")
	return apierr.Retry(ctx, b, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", apierr.Classify(err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: no choices in response", ErrCleanupFailed)
		}
		out := strings.TrimSpace(resp.Choices[0].Message.Content)
		if out == "" {
			return "", fmt.Errorf("%w: empty response", ErrCleanupFailed)
		}
		return out, nil
	})
}
