package assets

import (
	"mime"
	"net/http"

	"movie-stream/internal/logging"
)

// HLS content types expected by browser players. Registered explicitly
// because they are missing from many base images' mime tables.
var hlsContentTypes = map[string]string{
	".m3u8": "application/x-mpegURL",
	".ts":   "video/MP2T",
}

func init() {
	for ext, contentType := range hlsContentTypes {
		if err := mime.AddExtensionType(ext, contentType); err != nil {
			logging.Warn("failed to register content type for %s: %v", ext, err)
		}
	}
}

// FileServer serves the public asset root (HLS trees and posters) with the
// HLS content types registered.
func FileServer(root string) http.Handler {
	return http.FileServer(http.Dir(root))
}
