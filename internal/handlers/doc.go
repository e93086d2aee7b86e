// Package handlers provides the HTTP request handlers for the movie
// streaming API.
//
// It includes handlers for:
//   - Movie upload (multipart, with HLS transcoding)
//   - Catalog listing with search and pagination
//   - Per-movie get, update, delete, and poster replacement
//   - Health checks and version information
//
// Every API response is a JSON envelope with success, message, data, and
// errors fields.
package handlers
