package movies

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"movie-stream/internal/assets"
	"movie-stream/internal/logging"
	"movie-stream/internal/metrics"
	"movie-stream/internal/staging"
	"movie-stream/internal/transcoder"
)

const maxTitleLength = 200

// Converter turns a staged upload into an HLS tree and returns the manifest
// path. Satisfied by transcoder.Transcoder; tests substitute a fake.
type Converter interface {
	ConvertToHLS(ctx context.Context, inputPath, outputDir string) (string, error)
}

// Service orchestrates the upload-to-playable-asset pipeline:
// stage → transcode → resolve URL → persist, with scratch cleanup on every
// exit path.
type Service struct {
	store     Store
	stager    *staging.Stager
	converter Converter
	resolver  *assets.Resolver
}

// NewService wires the orchestrator with its collaborators.
func NewService(store Store, stager *staging.Stager, converter Converter, resolver *assets.Resolver) *Service {
	return &Service{
		store:     store,
		stager:    stager,
		converter: converter,
		resolver:  resolver,
	}
}

// UploadRequest carries one multipart upload through the pipeline.
// File is required; Poster is optional.
type UploadRequest struct {
	Title       string
	Description string
	File        io.Reader
	Filename    string
	Poster      io.Reader
}

// Upload runs the full pipeline for one uploaded video and returns the
// persisted movie. On any failure nothing is persisted and the scratch file
// is deleted; a partially written output directory is abandoned where it is
// (never reachable through the catalog).
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Movie, error) {
	movie, err := s.upload(ctx, req)
	switch {
	case err == nil:
		metrics.UploadsTotal.WithLabelValues("success").Inc()
	case IsValidationError(err):
		metrics.UploadsTotal.WithLabelValues("validation_error").Inc()
	case errors.Is(err, transcoder.ErrCancelled):
		metrics.UploadsTotal.WithLabelValues("cancelled").Inc()
	default:
		metrics.UploadsTotal.WithLabelValues("error").Inc()
	}
	return movie, err
}

func (s *Service) upload(ctx context.Context, req UploadRequest) (*Movie, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newValidationError("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, newValidationError("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if req.File == nil {
		return nil, newValidationError("file", "a video file is required")
	}

	// Decode the poster up front so a bad image is rejected before any disk
	// or subprocess work happens.
	var poster *posterImage
	if req.Poster != nil {
		var err error
		poster, err = decodePoster(req.Poster)
		if err != nil {
			return nil, err
		}
	}

	scratchPath, err := s.stager.Stage(req.File, req.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	// The scratch copy is consumed by the transcode and must go away on
	// every exit path, success or failure.
	defer s.stager.Remove(scratchPath)

	outputDir := filepath.Join(s.resolver.Root(), "movies", sanitizeStem(req.Filename)+"_"+randomSuffix())

	manifestPath, err := s.converter.ConvertToHLS(ctx, scratchPath, outputDir)
	if err != nil {
		// Partial output under outputDir is abandoned as an orphan. It is
		// never linked from the catalog so it stays unreachable.
		return nil, err
	}

	hlsURL, err := s.resolver.ToPublicURL(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest URL: %w", err)
	}

	var posterURL string
	if poster != nil {
		posterURL, err = s.savePoster(poster)
		if err != nil {
			return nil, err
		}
	}

	movie := &Movie{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		HlsURL:      hlsURL,
		PosterURL:   posterURL,
	}

	if err := s.store.Create(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to persist movie: %w", err)
	}

	logging.Info("Movie %d created: %s (%s)", movie.ID, movie.Title, movie.HlsURL)
	return movie, nil
}

// Get returns one movie by id.
func (s *Service) Get(ctx context.Context, id int64) (*Movie, error) {
	return s.store.GetByID(ctx, id)
}

// List returns a page of the catalog, optionally filtered by a title
// substring. Page and PageSize in opts must already be clamped.
func (s *Service) List(ctx context.Context, opts SearchOptions) (*PagedResult, error) {
	return s.store.Search(ctx, opts)
}

// Update overwrites a movie's title and description. No file-system
// interaction happens here.
func (s *Service) Update(ctx context.Context, id int64, title, description string) (*Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, newValidationError("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, newValidationError("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	return s.store.Update(ctx, id, title, strings.TrimSpace(description))
}

// Delete removes a movie's backing files and then its catalog row. The two
// steps are not transactional: a crash in between leaves a dangling row
// pointing at missing files, which is accepted in the absence of an intent
// log.
func (s *Service) Delete(ctx context.Context, id int64) error {
	movie, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// The manifest and its segments share one directory, so removing the
	// manifest's parent removes the whole rendition.
	assetDir := filepath.Dir(s.resolver.ToAbsolutePath(movie.HlsURL))
	if err := os.RemoveAll(assetDir); err != nil {
		return fmt.Errorf("failed to remove asset directory %s: %w", assetDir, err)
	}

	s.removePosterFile(movie.PosterURL)

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	logging.Info("Movie %d deleted (assets at %s)", id, assetDir)
	return nil
}

// UploadPoster replaces a movie's poster image. The previous poster file is
// deleted before the new URL is persisted.
func (s *Service) UploadPoster(ctx context.Context, id int64, r io.Reader) (*Movie, error) {
	movie, err := s.uploadPoster(ctx, id, r)
	switch {
	case err == nil:
		metrics.PosterUploadsTotal.WithLabelValues("success").Inc()
	case IsValidationError(err):
		metrics.PosterUploadsTotal.WithLabelValues("validation_error").Inc()
	default:
		metrics.PosterUploadsTotal.WithLabelValues("error").Inc()
	}
	return movie, err
}

func (s *Service) uploadPoster(ctx context.Context, id int64, r io.Reader) (*Movie, error) {
	if r == nil {
		return nil, newValidationError("poster", "a poster image is required")
	}

	movie, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	poster, err := decodePoster(r)
	if err != nil {
		return nil, err
	}

	s.removePosterFile(movie.PosterURL)

	posterURL, err := s.savePoster(poster)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdatePosterURL(ctx, id, posterURL); err != nil {
		return nil, err
	}

	movie.PosterURL = posterURL
	return movie, nil
}

// removePosterFile best-effort deletes a poster by its public URL.
func (s *Service) removePosterFile(posterURL string) {
	if posterURL == "" {
		return
	}
	path := s.resolver.ToAbsolutePath(posterURL)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove poster file %s: %v", path, err)
	}
}

// sanitizeStem reduces a client-supplied filename to a safe directory-name
// stem: extension stripped, anything outside [A-Za-z0-9._-] replaced.
func sanitizeStem(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "movie"
	}
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}

// randomSuffix returns 8 hex characters from a fresh random value so that
// repeated uploads of same-named files get distinct output directories.
func randomSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
