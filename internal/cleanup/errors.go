package cleanup

import "errors"

// ErrCleanupFailed indicates the cleanup service returned no usable text.
var ErrCleanupFailed = errors.New("transcript cleanup failed")

// ErrEmptyAPIKey indicates that the API key was not provided.
var ErrEmptyAPIKey = errors.New("API key is required")
