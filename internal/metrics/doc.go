// Package metrics defines the Prometheus instrumentation for the movie
// streaming service: HTTP request metrics, catalog database metrics, and
// transcode pipeline metrics.
//
// All collectors are registered with the default registry using promauto and
// exposed via a dedicated metrics HTTP server (see StartServer).
package metrics
