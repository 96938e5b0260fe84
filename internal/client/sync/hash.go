package sync

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

const hashBufferSize = 32 * 1024

// HashReader streams r through BLAKE3-256 and returns the hex digest.
// Memory use is bounded by the copy buffer regardless of input size.
func HashReader(r io.Reader) (string, error) {
	h := blake3.New()
	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile computes the content hash of the file at path
func HashFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	digest, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return digest, nil
}

// HashBytes computes the content hash of an in-memory buffer
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashWriter hashes whatever is written through it, for hashing while writing to disk
type hashWriter struct {
	h *blake3.Hasher
}

func newHashWriter() *hashWriter {
	return &hashWriter{h: blake3.New()}
}

func (w *hashWriter) Write(p []byte) (int, error) {
	return w.h.Write(p)
}

func (w *hashWriter) Hex() string {
	return hex.EncodeToString(w.h.Sum(nil))
}
