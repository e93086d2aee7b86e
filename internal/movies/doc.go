// Package movies holds the movie catalog domain: the Movie record, the
// persistence port, the upload/update/delete orchestrator, and the error
// taxonomy shared with the HTTP layer.
//
// The orchestrator composes the staging, transcoding, and path-resolution
// components into the upload pipeline: stage the upload to scratch storage,
// convert it to an HLS tree, resolve the manifest to a public URL, and
// persist the catalog record. The scratch file is deleted on every exit
// path; a failed transcode never produces a catalog row.
package movies
