// Package assets maps between on-disk asset locations and the public URLs
// stored in the catalog, and serves the generated HLS trees and posters over
// HTTP with the correct content types.
package assets
