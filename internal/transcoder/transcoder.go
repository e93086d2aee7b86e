package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"movie-stream/internal/logging"
	"movie-stream/internal/metrics"
)

// manifestName is the playlist filename inside every output directory.
// Segment files land next to it, numbered from 0, and the manifest
// references them by relative name.
const manifestName = "index.m3u8"

// maxStderrBytes bounds how much ffmpeg diagnostic output is retained for
// error reporting. The stream is still drained past this limit so the
// process never blocks on a full pipe.
const maxStderrBytes = 64 * 1024

// ErrCancelled indicates the caller cancelled the transcode. It is distinct
// from a process failure: a failed transcode should not be retried blindly,
// a cancelled one may be retried deliberately.
var ErrCancelled = errors.New("transcode cancelled")

// ExitError reports an encoder process that exited non-zero.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr)
}

// Transcoder drives the external ffmpeg process that converts staged uploads
// into single-rendition HLS trees. Live processes are tracked so Cleanup can
// kill them during shutdown. The map is keyed by the command itself, so
// concurrent transcodes of identically named inputs stay independently
// tracked; the value is the input path, kept for logging.
type Transcoder struct {
	ffmpegPath string
	processes  map[*exec.Cmd]string
	processMu  sync.Mutex
}

// New creates a Transcoder using the ffmpeg binary from PATH.
func New() *Transcoder {
	return &Transcoder{
		ffmpegPath: "ffmpeg",
		processes:  make(map[*exec.Cmd]string),
	}
}

// NewWithBinary creates a Transcoder using a specific encoder binary.
// Used by tests to substitute a stub encoder.
func NewWithBinary(path string) *Transcoder {
	t := New()
	t.ffmpegPath = path
	return t
}

// ConvertToHLS encodes inputPath into an HLS playlist tree under outputDir,
// creating the directory if needed, and returns the absolute manifest path.
//
// The encoding parameters are a wire-format contract: baseline profile for
// broad device compatibility, 10-second segments, all segments listed
// (VOD-style playlist), numbering from 0, single rendition. Changing them
// changes the published asset format.
//
// On cancellation the subprocess is killed and the returned error wraps
// ErrCancelled; partial output under outputDir is left for the caller to
// deal with. On non-zero exit the returned error is an *ExitError carrying
// the exit code and captured stderr.
func (t *Transcoder) ConvertToHLS(ctx context.Context, inputPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	manifestPath := filepath.Join(outputDir, manifestName)

	cmd := exec.Command(t.ffmpegPath,
		"-i", inputPath,
		"-profile:v", "baseline",
		"-level", "3.0",
		"-start_number", "0",
		"-hls_time", "10",
		"-hls_list_size", "0",
		"-f", "hls",
		manifestPath,
	)

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	logging.Info("Starting HLS transcode: input=%s output=%s", inputPath, manifestPath)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	t.processMu.Lock()
	t.processes[cmd] = inputPath
	t.processMu.Unlock()

	metrics.TranscodesInFlight.Inc()
	defer func() {
		metrics.TranscodesInFlight.Dec()
		t.processMu.Lock()
		delete(t.processes, cmd)
		t.processMu.Unlock()
	}()

	// Drain stderr concurrently with waiting for exit. ffmpeg writes all of
	// its progress output there; without a reader it blocks once the OS pipe
	// buffer fills and the encode deadlocks.
	var stderrBuf bytes.Buffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		if _, err := io.Copy(&stderrBuf, io.LimitReader(stderrPipe, maxStderrBytes)); err != nil {
			logging.Debug("stderr drain stopped: %v", err)
			return
		}
		// Keep consuming past the retained window
		if _, err := io.Copy(io.Discard, stderrPipe); err != nil {
			logging.Debug("stderr drain stopped: %v", err)
		}
	}()

	// Wait only after the drain goroutine is done with the pipe: Wait closes
	// the pipe's read side, and reading it afterwards is a race.
	done := make(chan error, 1)
	go func() {
		<-drained
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if killErr := cmd.Process.Kill(); killErr != nil {
			logging.Warn("failed to kill ffmpeg for %s: %v", inputPath, killErr)
		}
		<-done // reap the process
		metrics.TranscodesTotal.WithLabelValues("cancelled").Inc()
		logging.Info("Transcode cancelled after %v: %s", time.Since(start), inputPath)
		return "", fmt.Errorf("transcode of %s: %w", inputPath, ErrCancelled)

	case waitErr := <-done:
		duration := time.Since(start)
		if waitErr != nil {
			metrics.TranscodesTotal.WithLabelValues("error").Inc()
			stderr := strings.TrimSpace(stderrBuf.String())

			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				logging.Error("FFmpeg failed (exit code %d) for %s: %s", exitErr.ExitCode(), inputPath, stderr)
				return "", &ExitError{ExitCode: exitErr.ExitCode(), Stderr: stderr}
			}
			return "", fmt.Errorf("ffmpeg wait failed: %w", waitErr)
		}

		metrics.TranscodesTotal.WithLabelValues("success").Inc()
		metrics.TranscodeDuration.Observe(duration.Seconds())
		logging.Info("Transcode complete in %v: %s", duration, manifestPath)
		return manifestPath, nil
	}
}

// Cleanup kills all active encoder processes. Called during shutdown.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for cmd, path := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing transcode process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transcode process for %s: %v", path, err)
			}
		}
	}
}
