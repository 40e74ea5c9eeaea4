package pipeline

import "strings"

// Scratch holds the intermediate files of a run, named from the input path
// so concurrent runs on different inputs never collide.
type Scratch struct {
	PCM           string
	EnhancedAudio string
}

// ScratchFiles returns the scratch paths for input.
func ScratchFiles(input string) Scratch {
	return Scratch{
		PCM:           input + ".pcm",
		EnhancedAudio: input + ".enhanced.aac",
	}
}

// OutputPath returns "<input>_edited.mp4" after stripping any trailing
// ".mp4" and ".MP4" suffixes from input.
func OutputPath(input string) string {
	base := input
	for strings.HasSuffix(base, ".mp4") {
		base = strings.TrimSuffix(base, ".mp4")
	}
	for strings.HasSuffix(base, ".MP4") {
		base = strings.TrimSuffix(base, ".MP4")
	}
	return base + "_edited.mp4"
}
