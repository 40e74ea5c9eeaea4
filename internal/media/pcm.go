package media

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// PCM extraction parameters expected by speech recognizers.
const (
	SpeechSampleRate = 16000
	SpeechChannels   = 1
)

// ReadPCM decodes a headerless little-endian 32-bit float stream.
func ReadPCM(r io.Reader) ([]float32, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPCM, len(data))
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, nil
}

// ReadPCMFile decodes the f32le file at path.
func ReadPCMFile(path string) ([]float32, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the scratch file derived from the input
	if err != nil {
		return nil, fmt.Errorf("open pcm: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadPCM(f)
}
