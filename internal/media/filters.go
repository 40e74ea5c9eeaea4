package media

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alnah/go-videocut/internal/timeline"
)

// EnhanceFilter denoises and normalizes speech to -16 LUFS.
const EnhanceFilter = "afftdn=nf=-25,loudnorm=I=-16:TP=-1.5:LRA=11"

// Audio output settings shared by every export path.
const (
	audioCodec      = "aac"
	audioBitrate    = "192k"
	audioSampleRate = "44100"
)

// SilenceDetectFilter returns the silencedetect filter for a noise floor in
// dBFS (already negative, emitted verbatim) and a minimum silence length.
func SilenceDetectFilter(noiseDB, minSeconds float64) string {
	return fmt.Sprintf("silencedetect=noise=%sdB:d=%s", formatSeconds(noiseDB), formatSeconds(minSeconds))
}

// SelectExpr serializes keep ranges as an ffmpeg boolean predicate over t:
// the sum of per-range between() tests, non-zero inside any kept range.
func SelectExpr(keep []timeline.Interval) string {
	terms := make([]string, len(keep))
	for i, r := range keep {
		terms[i] = fmt.Sprintf("between(t,%s,%s)", formatSeconds(r.Start), formatSeconds(r.End))
	}
	return strings.Join(terms, "+")
}

// VideoSelectFilter keeps the frames inside keep and re-times them so the
// output has no gaps.
func VideoSelectFilter(keep []timeline.Interval) string {
	return fmt.Sprintf("select='%s',setpts=N/FRAME_RATE/TB", SelectExpr(keep))
}

// AudioSelectFilter is the audio counterpart of VideoSelectFilter. The same
// predicate is applied so both streams stay in sync. With enhance the
// cleanup chain runs on the already-cut audio.
func AudioSelectFilter(keep []timeline.Interval, enhance bool) string {
	f := fmt.Sprintf("aselect='%s',asetpts=N/SR/TB", SelectExpr(keep))
	if enhance {
		f += "," + EnhanceFilter
	}
	return f
}

// formatSeconds prints the shortest decimal that round-trips, so filter
// strings stay readable and exact.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// videoEncodeArgs returns the H.264 settings for re-encoded exports.
func videoEncodeArgs(codec string) []string {
	return []string{
		"-c:v", codec,
		"-b:v", "8M",
		"-maxrate", "10M",
		"-bufsize", "16M",
		"-profile:v", "high",
		"-pix_fmt", "yuv420p",
	}
}

// audioEncodeArgs returns the AAC settings shared by every output.
func audioEncodeArgs() []string {
	return []string{
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		"-ar", audioSampleRate,
	}
}
