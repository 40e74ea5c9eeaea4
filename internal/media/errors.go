package media

import "errors"

// ErrTranscoderFailed indicates ffmpeg exited non-zero or produced output
// that could not be parsed. The wrapped message carries the ffmpeg log tail.
var ErrTranscoderFailed = errors.New("transcoder failed")

// ErrNoKeepRanges indicates an export was requested with nothing to keep.
var ErrNoKeepRanges = errors.New("no keep ranges")

// ErrInvalidPCM indicates a raw PCM stream whose length is not a whole
// number of 32-bit samples.
var ErrInvalidPCM = errors.New("invalid f32le pcm stream")
