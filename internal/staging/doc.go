// Package staging writes in-flight uploads to private scratch storage under
// collision-proof random names before they are handed to the transcoder.
package staging
