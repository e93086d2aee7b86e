package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"movie-stream/internal/movies"
)

// Create inserts a new movie record and assigns its id and creation time.
func (d *Database) Create(ctx context.Context, movie *movies.Movie) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_movie", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	var res sql.Result
	res, err = d.db.ExecContext(ctx, `
		INSERT INTO movies (title, description, hls_url, poster_url, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?)
	`, movie.Title, movie.Description, movie.HlsURL, movie.PosterURL, now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}

	id, idErr := res.LastInsertId()
	if idErr != nil {
		err = idErr
		return fmt.Errorf("failed to read inserted movie id: %w", idErr)
	}

	movie.ID = id
	movie.CreatedAt = time.Unix(now.Unix(), 0)
	return nil
}

// GetByID returns the movie with the given id, or movies.ErrNotFound.
func (d *Database) GetByID(ctx context.Context, id int64) (*movies.Movie, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_movie", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, title, description, hls_url, poster_url, created_at
		FROM movies WHERE id = ?
	`, id)

	movie, scanErr := scanMovie(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, movies.ErrNotFound
		}
		err = scanErr
		return nil, fmt.Errorf("failed to get movie %d: %w", id, scanErr)
	}
	return movie, nil
}

// Update overwrites title and description and returns the updated record.
func (d *Database) Update(ctx context.Context, id int64, title, description string) (*movies.Movie, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_movie", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx, `
		UPDATE movies SET title = ?, description = ? WHERE id = ?
	`, title, description, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update movie %d: %w", id, err)
	}

	if rows, raErr := res.RowsAffected(); raErr == nil && rows == 0 {
		return nil, movies.ErrNotFound
	}

	return d.GetByID(ctx, id)
}

// UpdatePosterURL replaces the poster URL for a movie.
func (d *Database) UpdatePosterURL(ctx context.Context, id int64, posterURL string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_poster", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx, `
		UPDATE movies SET poster_url = NULLIF(?, '') WHERE id = ?
	`, posterURL, id)
	if err != nil {
		return fmt.Errorf("failed to update poster for movie %d: %w", id, err)
	}

	if rows, raErr := res.RowsAffected(); raErr == nil && rows == 0 {
		return movies.ErrNotFound
	}
	return nil
}

// Delete removes the catalog row only. Backing files are the caller's problem
// and must be removed before this is called.
func (d *Database) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_movie", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie %d: %w", id, err)
	}

	if rows, raErr := res.RowsAffected(); raErr == nil && rows == 0 {
		return movies.ErrNotFound
	}
	return nil
}

// Search returns one page of movies whose title contains opts.Search,
// newest first. Page and PageSize are trusted as-is; the HTTP layer clamps
// them before they reach the store.
func (d *Database) Search(ctx context.Context, opts movies.SearchOptions) (*movies.PagedResult, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search_movies", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	countQuery := `SELECT COUNT(*) FROM movies`
	selectQuery := `
		SELECT id, title, description, hls_url, poster_url, created_at
		FROM movies
	`
	var countArgs, selectArgs []interface{}

	if opts.Search != "" {
		filter := ` WHERE title LIKE '%' || ? || '%' ESCAPE '\'`
		countQuery += filter
		selectQuery += filter
		escaped := escapeLike(opts.Search)
		countArgs = append(countArgs, escaped)
		selectArgs = append(selectArgs, escaped)
	}

	var totalRecords int
	if err = d.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalRecords); err != nil {
		return nil, fmt.Errorf("count query failed: %w", err)
	}

	// id breaks ties between rows created within the same second so a fresh
	// upload always sorts ahead of older ones.
	selectQuery += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	selectArgs = append(selectArgs, opts.PageSize, (opts.Page-1)*opts.PageSize)

	rows, queryErr := d.db.QueryContext(ctx, selectQuery, selectArgs...)
	if queryErr != nil {
		err = queryErr
		return nil, fmt.Errorf("select query failed: %w", queryErr)
	}
	defer rows.Close()

	items := []movies.Movie{}
	for rows.Next() {
		movie, scanErr := scanMovie(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("scan failed: %w", scanErr)
		}
		items = append(items, *movie)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &movies.PagedResult{
		Items:        items,
		PageNumber:   opts.Page,
		PageSize:     opts.PageSize,
		TotalRecords: totalRecords,
		TotalPages:   int(math.Ceil(float64(totalRecords) / float64(opts.PageSize))),
	}, nil
}

// likeEscaper neutralizes LIKE metacharacters so a search term always matches
// as a literal substring, never as a pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (*movies.Movie, error) {
	var movie movies.Movie
	var description, posterURL sql.NullString
	var createdAt int64

	if err := row.Scan(
		&movie.ID, &movie.Title, &description,
		&movie.HlsURL, &posterURL, &createdAt,
	); err != nil {
		return nil, err
	}

	movie.Description = description.String
	movie.PosterURL = posterURL.String
	movie.CreatedAt = time.Unix(createdAt, 0)
	return &movie, nil
}
