// Package hasher computes content digests of backup archives.
package hasher

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ChunkSize is the read size used while streaming an archive through the digest.
const ChunkSize = 4096

// ErrIO is returned when an archive cannot be opened or read.
var ErrIO = errors.New("archive I/O error")

// chunk wraps a byte slice for use in sync.Pool
type chunk struct {
	b []byte
}

var chunks = sync.Pool{
	New: func() interface{} {
		return &chunk{b: make([]byte, ChunkSize)}
	},
}

// File returns the lowercase hex SHA-1 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %v", ErrIO, path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return sum, nil
}

// Reader streams r through SHA-1 in ChunkSize reads and returns the lowercase
// hex digest. Nothing is returned if a read fails partway.
func Reader(r io.Reader) (string, error) {
	c := chunks.Get().(*chunk)
	defer chunks.Put(c)

	h := sha1.New()
	for {
		n, err := r.Read(c.b)
		if n > 0 {
			h.Write(c.b[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: read failed: %v", ErrIO, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
