package movies

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // poster decode support

	"movie-stream/internal/logging"
)

const (
	// maxPosterBytes caps poster uploads; posters are cover art, not media.
	maxPosterBytes = 10 << 20

	// maxPosterWidth is the widest poster kept as-is. Anything wider is
	// downscaled and re-encoded so the catalog never serves print-resolution
	// originals.
	maxPosterWidth = 1920
)

// posterImage is a validated poster ready to be written to disk.
type posterImage struct {
	data []byte
	ext  string
}

// decodePoster reads and validates a poster upload. The bytes must decode as
// an image (jpeg, png, gif, or webp); oversized images are resized down and
// re-encoded as JPEG.
func decodePoster(r io.Reader) (*posterImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPosterBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read poster upload: %w", err)
	}
	if len(data) > maxPosterBytes {
		return nil, newValidationError("poster", "poster image is too large")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newValidationError("poster", "file is not a supported image")
	}

	if img.Bounds().Dx() > maxPosterWidth {
		resized := imaging.Resize(img, maxPosterWidth, 0, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return nil, fmt.Errorf("failed to re-encode poster: %w", err)
		}
		logging.Debug("Poster resized from %dpx to %dpx wide", img.Bounds().Dx(), maxPosterWidth)
		return &posterImage{data: buf.Bytes(), ext: ".jpg"}, nil
	}

	return &posterImage{data: data, ext: posterExt(format)}, nil
}

// savePoster writes a validated poster under a fresh random name in the
// poster directory and returns its public URL.
func (s *Service) savePoster(poster *posterImage) (string, error) {
	dir := filepath.Join(s.resolver.Root(), "posters")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create poster directory: %w", err)
	}

	path := filepath.Join(dir, randomSuffix()+randomSuffix()+poster.ext)
	if err := os.WriteFile(path, poster.data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write poster file: %w", err)
	}

	return s.resolver.ToPublicURL(path)
}

func posterExt(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".img"
	}
}
