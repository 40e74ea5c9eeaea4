package ffmpeg

import "errors"

// ErrNotFound indicates no usable ffmpeg binary was found and auto-download
// was disabled or failed.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrUnsupportedPlatform indicates no prebuilt ffmpeg exists for the OS/architecture.
var ErrUnsupportedPlatform = errors.New("unsupported platform for ffmpeg auto-download")

// ErrChecksumMismatch indicates a downloaded archive failed SHA256 verification.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrDownloadFailed indicates the ffmpeg archive could not be downloaded.
var ErrDownloadFailed = errors.New("download failed")

// ErrTimeout is returned when a canceled ffmpeg job does not exit in time and is killed.
var ErrTimeout = errors.New("ffmpeg did not exit within timeout")
