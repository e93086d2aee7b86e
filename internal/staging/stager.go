package staging

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"movie-stream/internal/logging"
	"movie-stream/internal/metrics"
)

// Stager persists inbound upload streams to private scratch storage.
// Names are random so concurrent uploads of the same file never collide and
// client-supplied names never touch the filesystem.
type Stager struct {
	dir string
}

// New returns a Stager writing into dir.
func New(dir string) *Stager {
	return &Stager{dir: dir}
}

// Stage writes the full upload body to a scratch file and returns its path.
// Only the extension of originalName is kept, and only when it looks like a
// plain extension. The caller owns the file and must Remove it when done,
// success or failure.
func (s *Stager) Stage(r io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	path := filepath.Join(s.dir, randomName()+safeExt(originalName))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A partial scratch file is useless, delete it right away
		if rmErr := os.Remove(path); rmErr != nil {
			logging.Warn("failed to remove partial scratch file %s: %v", path, rmErr)
		}
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}

	metrics.UploadBytesStaged.Add(float64(written))
	logging.Debug("Staged %d bytes to %s", written, path)
	return path, nil
}

// Remove deletes a scratch file. Failures are logged, not returned: by the
// time cleanup runs the outcome of the upload is already decided.
func (s *Stager) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove scratch file %s: %v", path, err)
	}
}

// randomName returns 32 hex characters from a fresh 16-byte random value.
func randomName() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the system is in serious trouble
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// safeExt extracts the extension from a client-supplied filename, rejecting
// anything with path separators or an unreasonable length.
func safeExt(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		switch {
		case r == '.':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return ""
		}
	}
	return ext
}
