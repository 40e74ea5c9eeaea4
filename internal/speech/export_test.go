package speech

import "time"

// Exports for testing.

var (
	WordsFromTokens      = wordsFromTokens
	ParseWhisperJSON     = parseWhisperJSON
	SegmentsFromResponse = segmentsFromResponse
)

// AudioTranscriber exposes the client interface for mocks.
type AudioTranscriber = audioTranscriber

// CommandRunner exposes the process runner signature for mocks.
type CommandRunner = commandRunner

// EnvProvider exposes the environment interface for mocks.
type EnvProvider = envProvider

// NewTestOpenAIRecognizer creates a recognizer with a mock client and
// millisecond retry delays.
func NewTestOpenAIRecognizer(client audioTranscriber, opts ...OpenAIOption) *OpenAIRecognizer {
	opts = append([]OpenAIOption{WithRetryDelays(time.Millisecond, time.Millisecond)}, opts...)
	return newOpenAIRecognizer(client, opts...)
}

// WithCommandRunner exposes withCommandRunner.
var WithCommandRunner = withCommandRunner

// NewTestLocator creates a Locator with injected lookups.
func NewTestLocator(env envProvider, stat statFunc) *Locator {
	return &Locator{env: env, stat: stat}
}
