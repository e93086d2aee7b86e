// Package transcoder invokes ffmpeg to convert uploaded videos into
// single-rendition HLS playlist trees.
//
// It owns the subprocess lifecycle: spawning, concurrent stderr draining,
// exit-status classification, caller-initiated cancellation, and shutdown
// cleanup of in-flight encodes.
package transcoder
