package ffmpeg

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxDecompressedSize bounds the unpacked binary (~80MB) against gzip bombs.
const maxDecompressedSize = 200 * 1024 * 1024

// verifyChecksum compares the SHA256 of the file at path with want.
func verifyChecksum(path, want string) error {
	f, err := os.Open(path) // #nosec G304 -- path is an internal temp file
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("compute checksum: %w", err)
	}

	if got := hex.EncodeToString(h.Sum(nil)); got != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, got)
	}
	return nil
}

// decompressGzip unpacks gzPath into destPath through a temp file and an
// atomic rename, so a failed extraction never leaves a truncated binary.
func decompressGzip(gzPath, destPath string) error {
	in, err := os.Open(gzPath) // #nosec G304 -- gzPath is an internal temp file
	if err != nil {
		return fmt.Errorf("open gzip file: %w", err)
	}
	defer func() { _ = in.Close() }()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("invalid gzip file: %w", err)
	}
	defer func() { _ = zr.Close() }()

	out, err := os.CreateTemp(filepath.Dir(destPath), ".extract-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	outPath := out.Name()
	ok := false
	defer func() {
		_ = out.Close()
		if !ok {
			_ = os.Remove(outPath)
		}
	}()

	written, err := io.Copy(out, io.LimitReader(zr, maxDecompressedSize))
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	if written >= maxDecompressedSize {
		return fmt.Errorf("decompress: file exceeds %d bytes", maxDecompressedSize)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(outPath, destPath); err != nil {
		return fmt.Errorf("install binary: %w", err)
	}
	ok = true
	return nil
}
