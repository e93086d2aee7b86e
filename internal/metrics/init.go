package metrics

// InitializeMetrics pre-populates expected label combinations so that every
// metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "error", "cancelled"} {
		TranscodesTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "validation_error", "error", "cancelled"} {
		UploadsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "validation_error", "error"} {
		PosterUploadsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "create_movie", "get_movie",
		"update_movie", "update_poster", "delete_movie", "search_movies"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
