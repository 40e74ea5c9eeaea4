package speech

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const wavBitsPerSample = 16

// EncodeWAV writes samples as a 16-bit PCM WAV stream. Samples outside
// [-1, 1] are clipped.
func EncodeWAV(w io.Writer, samples []float32, sampleRate, channels int) error {
	blockAlign := channels * wavBitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := uint32(len(samples) * wavBitsPerSample / 8)

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36) + dataSize,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // fmt chunk size
		uint16(1),  // PCM
		uint16(channels),
		uint32(sampleRate),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(wavBitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write wav header: %w", err)
		}
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = toInt16(s)
	}
	if err := binary.Write(w, binary.LittleEndian, pcm); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

func toInt16(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	v := max(-1, min(1, float64(s)))
	return int16(math.Round(v * math.MaxInt16))
}
