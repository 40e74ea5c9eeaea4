package media

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-videocut/internal/timeline"
)

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([\d.]+)`)
	durationRe     = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2})\.(\d+)`)
)

// errNoDuration is wrapped into ErrTranscoderFailed by callers.
var errNoDuration = errors.New("could not parse duration from ffmpeg output")

// parseSilences extracts silence intervals from silencedetect output:
//
//	[silencedetect @ 0x...] silence_start: 42.123
//	[silencedetect @ 0x...] silence_end: 43.456 | silence_duration: 1.333
//
// Each start is paired with the next end in document order; an end with no
// pending start is ignored. A start left open when the log ends is closed at
// duration when duration is known (silence running to end of file).
// Negative starts, which ffmpeg emits for silence at t=0 on some inputs,
// are clamped to zero.
func parseSilences(output string, duration float64) []timeline.Interval {
	var (
		silences []timeline.Interval
		start    float64
		open     bool
	)

	for line := range strings.SplitSeq(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				start = max(v, 0)
				open = true
			}
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && open {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				if v > start {
					silences = append(silences, timeline.Interval{Start: start, End: v})
				}
				open = false
			}
		}
	}

	if open && duration > start {
		silences = append(silences, timeline.Interval{Start: start, End: duration})
	}
	return silences
}

// parseDuration reads the container duration from ffmpeg's input banner,
// "Duration: HH:MM:SS.ff". The fractional part may have any precision.
func parseDuration(output string) (float64, error) {
	m := durationRe.FindStringSubmatch(output)
	if m == nil {
		return 0, errNoDuration
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	frac, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return 0, errNoDuration
	}
	frac /= math.Pow(10, float64(len(m[4])))
	return float64(h*3600+mins*60+s) + frac, nil
}
