package handlers

import (
	"context"

	"movie-stream/internal/movies"
	"movie-stream/internal/startup"
)

// Pinger reports whether the catalog store is reachable. Satisfied by
// database.Database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	service        *movies.Service
	db             Pinger
	devMode        bool
	maxUploadBytes int64
}

// New wires the handler set.
func New(service *movies.Service, db Pinger, config *startup.Config) *Handlers {
	return &Handlers{
		service:        service,
		db:             db,
		devMode:        config.DevMode,
		maxUploadBytes: config.MaxUploadBytes,
	}
}
