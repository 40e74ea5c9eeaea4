package speech

import "errors"

// ErrRecognitionFailed indicates the recognizer ran but produced no usable result.
var ErrRecognitionFailed = errors.New("speech recognition failed")

// ErrModelNotFound indicates no whisper model file could be located.
var ErrModelNotFound = errors.New("whisper model not found")

// ErrRecognizerNotFound indicates the whisper.cpp command-line tool is not installed.
var ErrRecognizerNotFound = errors.New("whisper.cpp CLI not found")

// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")
