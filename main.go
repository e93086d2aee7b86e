package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"movie-stream/internal/assets"
	"movie-stream/internal/database"
	"movie-stream/internal/handlers"
	"movie-stream/internal/logging"
	"movie-stream/internal/metrics"
	"movie-stream/internal/middleware"
	"movie-stream/internal/movies"
	"movie-stream/internal/staging"
	"movie-stream/internal/startup"
	"movie-stream/internal/transcoder"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize transcoder
	startup.LogTranscoderInit()
	trans := transcoder.New()

	// Wire the upload pipeline
	stager := staging.New(config.TempDir)
	resolver := assets.NewResolver(config.AssetDir)
	service := movies.NewService(db, stager, trans, resolver)

	// Initialize handlers
	h := handlers.New(service, db, config)

	// Setup router and middleware chain
	router := setupRouter(h, config.AssetDir)

	var handler http.Handler = router
	handler = middleware.Logger(middleware.DefaultLoggingConfig())(handler)
	handler = cors.AllowAll().Handler(handler)
	handler = middleware.Recovery(config.DevMode)(handler)

	// Metrics server on its own port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metricsSrv = metrics.StartServer(config.MetricsPort)
	}

	// Create server. The write timeout is zero: uploads can legitimately
	// hold the connection for the full duration of a transcode.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, trans)

	// Start server
	startup.LogServerStarted(config.Port, config.MetricsPort, config.MetricsEnabled, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, assetDir string) *mux.Router {
	r := mux.NewRouter()

	// Registered on the router, not around it: mux runs Use middleware after
	// route matching, which is what lets the metrics label carry the route
	// template instead of the raw URL.
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Movie catalog API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/movies", h.ListMovies).Methods("GET")
	api.HandleFunc("/movies/upload", h.UploadMovie).Methods("POST")
	api.HandleFunc("/movies/{id}", h.GetMovie).Methods("GET")
	api.HandleFunc("/movies/{id}", h.UpdateMovie).Methods("PUT")
	api.HandleFunc("/movies/{id}", h.DeleteMovie).Methods("DELETE")
	api.HandleFunc("/movies/{id}/poster", h.UploadPoster).Methods("POST")

	// Generated assets: HLS trees under /movies/, posters under /posters/
	r.PathPrefix("/movies/").Handler(assets.FileServer(assetDir))
	r.PathPrefix("/posters/").Handler(assets.FileServer(assetDir))

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, trans *transcoder.Transcoder) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping transcoder processes")
	trans.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
