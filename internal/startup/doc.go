// Package startup handles application configuration, directory validation,
// and structured startup/shutdown logging.
//
// Configuration comes from environment variables with sensible defaults.
// LoadConfig validates that the asset, temp, and database directories exist
// and are writable before the server accepts any upload.
package startup
