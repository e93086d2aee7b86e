package movies

import (
	"context"
	"time"
)

// Movie is the catalog record for one uploaded-and-transcoded video.
// HlsURL and PosterURL are paths relative to the public asset root,
// forward-slash separated with a leading slash (e.g. "/movies/demo_ab12/index.m3u8").
type Movie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	HlsURL      string    `json:"hlsUrl"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SearchOptions selects a page of the catalog. The HTTP layer clamps Page and
// PageSize before they reach the store; the store trusts them as-is.
type SearchOptions struct {
	Search   string
	Page     int
	PageSize int
}

// PagedResult is one page of catalog entries plus pagination totals.
type PagedResult struct {
	Items        []Movie `json:"items"`
	PageNumber   int     `json:"pageNumber"`
	PageSize     int     `json:"pageSize"`
	TotalRecords int     `json:"totalRecords"`
	TotalPages   int     `json:"totalPages"`
}

// Store is the persistence port for the movie catalog. The production
// implementation is internal/database; tests substitute an in-memory one.
type Store interface {
	Create(ctx context.Context, movie *Movie) error
	GetByID(ctx context.Context, id int64) (*Movie, error)
	Update(ctx context.Context, id int64, title, description string) (*Movie, error)
	UpdatePosterURL(ctx context.Context, id int64, posterURL string) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, opts SearchOptions) (*PagedResult, error)
}
