package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrUnknownRecognizer indicates an unsupported speech backend name.
	ErrUnknownRecognizer = errors.New("unknown recognizer")

	// ErrInvalidRange indicates a --keep value that is not "start-end".
	ErrInvalidRange = errors.New("invalid time range")

	// ErrInvalidEventFormat indicates an unsupported --events value.
	ErrInvalidEventFormat = errors.New("invalid event format")

	// ErrNoKeepSource indicates export got neither --keep nor --transcript.
	ErrNoKeepSource = errors.New("export needs --keep or --transcript")

	// ErrKeepSourceConflict indicates export got both --keep and --transcript.
	ErrKeepSourceConflict = errors.New("--keep and --transcript are mutually exclusive")

	// ErrBatchOutput indicates --output was given for more than one input.
	ErrBatchOutput = errors.New("--output accepts a single input")
)
