package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"movie-stream/internal/assets"
	"movie-stream/internal/movies"
	"movie-stream/internal/staging"
	"movie-stream/internal/startup"
)

// fakeStore is an in-memory movies.Store that records the last search options.
type fakeStore struct {
	nextID   int64
	records  map[int64]*movies.Movie
	lastOpts movies.SearchOptions
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, records: make(map[int64]*movies.Movie)}
}

func (f *fakeStore) Create(_ context.Context, movie *movies.Movie) error {
	movie.ID = f.nextID
	f.nextID++
	clone := *movie
	f.records[movie.ID] = &clone
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*movies.Movie, error) {
	m, ok := f.records[id]
	if !ok {
		return nil, movies.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, title, description string) (*movies.Movie, error) {
	m, ok := f.records[id]
	if !ok {
		return nil, movies.ErrNotFound
	}
	m.Title = title
	m.Description = description
	clone := *m
	return &clone, nil
}

func (f *fakeStore) UpdatePosterURL(_ context.Context, id int64, posterURL string) error {
	m, ok := f.records[id]
	if !ok {
		return movies.ErrNotFound
	}
	m.PosterURL = posterURL
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.records[id]; !ok {
		return movies.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) Search(_ context.Context, opts movies.SearchOptions) (*movies.PagedResult, error) {
	f.lastOpts = opts
	items := []movies.Movie{}
	for _, m := range f.records {
		items = append(items, *m)
	}
	return &movies.PagedResult{
		Items:        items,
		PageNumber:   opts.Page,
		PageSize:     opts.PageSize,
		TotalRecords: len(items),
		TotalPages:   1,
	}, nil
}

// fakeConverter fabricates a manifest without running ffmpeg.
type fakeConverter struct {
	err error
}

func (f *fakeConverter) ConvertToHLS(_ context.Context, inputPath, outputDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	manifest := filepath.Join(outputDir, "index.m3u8")
	if err := os.WriteFile(manifest, []byte("#EXTM3U\n"), 0o644); err != nil {
		return "", err
	}
	return manifest, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

// newTestRouter assembles the handler set on a real mux router with a fake
// store and converter behind a real Service.
func newTestRouter(t *testing.T, store movies.Store, pinger Pinger) *mux.Router {
	t.Helper()

	service := movies.NewService(
		store,
		staging.New(t.TempDir()),
		&fakeConverter{},
		assets.NewResolver(t.TempDir()),
	)

	config := &startup.Config{
		DevMode:        false,
		MaxUploadBytes: 64 << 20,
	}
	h := New(service, pinger, config)

	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	r.HandleFunc("/api/movies", h.ListMovies).Methods("GET")
	r.HandleFunc("/api/movies/upload", h.UploadMovie).Methods("POST")
	r.HandleFunc("/api/movies/{id}", h.GetMovie).Methods("GET")
	r.HandleFunc("/api/movies/{id}", h.UpdateMovie).Methods("PUT")
	r.HandleFunc("/api/movies/{id}", h.DeleteMovie).Methods("DELETE")
	r.HandleFunc("/api/movies/{id}/poster", h.UploadPoster).Methods("POST")
	return r
}

func seedMovie(t *testing.T, store *fakeStore, title string) *movies.Movie {
	t.Helper()

	movie := &movies.Movie{
		Title:  title,
		HlsURL: "/movies/" + title + "_0000/index.m3u8",
	}
	if err := store.Create(context.Background(), movie); err != nil {
		t.Fatalf("seed create error: %v", err)
	}
	return movie
}

func decodeEnvelope(t *testing.T, body io.Reader) apiResponse {
	t.Helper()

	var envelope apiResponse
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response envelope: %v", err)
	}
	return envelope
}

// multipartBody builds a multipart form with the given string fields and
// file parts (field name -> filename, content).
type filePart struct {
	field    string
	filename string
	content  []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write form field %s: %v", k, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("failed to create file part %s: %v", f.field, err)
		}
		if _, err := part.Write(f.content); err != nil {
			t.Fatalf("failed to write file part %s: %v", f.field, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestListMoviesClamping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantSearch   string
	}{
		{"defaults", "", 1, 10, ""},
		{"explicit values", "pageNumber=3&pageSize=25", 3, 25, ""},
		{"page size over ceiling", "pageSize=100", 1, 50, ""},
		{"zero page number", "pageNumber=0", 1, 10, ""},
		{"negative values", "pageNumber=-2&pageSize=-5", 1, 10, ""},
		{"garbage values", "pageNumber=abc&pageSize=xyz", 1, 10, ""},
		{"search term", "search=matrix", 1, 10, "matrix"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			router := newTestRouter(t, store, &fakePinger{})

			req := httptest.NewRequest("GET", "/api/movies?"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if store.lastOpts.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", store.lastOpts.Page, tt.wantPage)
			}
			if store.lastOpts.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", store.lastOpts.PageSize, tt.wantPageSize)
			}
			if store.lastOpts.Search != tt.wantSearch {
				t.Errorf("Search = %q, want %q", store.lastOpts.Search, tt.wantSearch)
			}

			envelope := decodeEnvelope(t, rec.Body)
			if !envelope.Success {
				t.Errorf("Success = false, want true: %s", envelope.Message)
			}
		})
	}
}

func TestGetMovie(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	movie := seedMovie(t, store, "findable")
	router := newTestRouter(t, store, &fakePinger{})

	req := httptest.NewRequest("GET", "/api/movies/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	envelope := decodeEnvelope(t, rec.Body)
	if !envelope.Success {
		t.Fatalf("Success = false: %s", envelope.Message)
	}

	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data type = %T, want object", envelope.Data)
	}
	if data["title"] != movie.Title {
		t.Errorf("title = %v, want %q", data["title"], movie.Title)
	}
	if data["hlsUrl"] != movie.HlsURL {
		t.Errorf("hlsUrl = %v, want %q", data["hlsUrl"], movie.HlsURL)
	}
}

func TestGetMovieNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), &fakePinger{})

	req := httptest.NewRequest("GET", "/api/movies/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	envelope := decodeEnvelope(t, rec.Body)
	if envelope.Success {
		t.Error("Success = true on a 404")
	}
	if envelope.Message != "Movie not found." {
		t.Errorf("Message = %q, want %q", envelope.Message, "Movie not found.")
	}
}

func TestGetMovieInvalidID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), &fakePinger{})

	req := httptest.NewRequest("GET", "/api/movies/not-a-number", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec.Body); envelope.Success {
		t.Error("Success = true on a 400")
	}
}

func TestUploadMovie(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := newTestRouter(t, store, &fakePinger{})

	body, contentType := multipartBody(t,
		map[string]string{"title": "Uploaded", "description": "via test"},
		[]filePart{{field: "file", filename: "uploaded.mp4", content: []byte("video bytes")}},
	)

	req := httptest.NewRequest("POST", "/api/movies/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec.Body)
	if !envelope.Success {
		t.Fatalf("Success = false: %s", envelope.Message)
	}

	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data type = %T, want object", envelope.Data)
	}
	if data["title"] != "Uploaded" {
		t.Errorf("title = %v, want Uploaded", data["title"])
	}
	hlsURL, _ := data["hlsUrl"].(string)
	if !strings.HasPrefix(hlsURL, "/movies/uploaded_") || !strings.HasSuffix(hlsURL, "/index.m3u8") {
		t.Errorf("hlsUrl = %q, want /movies/uploaded_<suffix>/index.m3u8", hlsURL)
	}
	if len(store.records) != 1 {
		t.Errorf("store has %d records, want 1", len(store.records))
	}
}

func TestUploadMovieWithPoster(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := newTestRouter(t, store, &fakePinger{})

	body, contentType := multipartBody(t,
		map[string]string{"title": "With Poster"},
		[]filePart{
			{field: "file", filename: "movie.mp4", content: []byte("video")},
			{field: "poster", filename: "poster.png", content: pngBytes(t)},
		},
	)

	req := httptest.NewRequest("POST", "/api/movies/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec.Body)
	data, _ := envelope.Data.(map[string]interface{})
	posterURL, _ := data["posterUrl"].(string)
	if !strings.HasPrefix(posterURL, "/posters/") {
		t.Errorf("posterUrl = %q, want /posters/ prefix", posterURL)
	}
}

func TestUploadMovieMissingFile(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), &fakePinger{})

	body, contentType := multipartBody(t, map[string]string{"title": "No File"}, nil)

	req := httptest.NewRequest("POST", "/api/movies/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadMovieEmptyTitle(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := newTestRouter(t, store, &fakePinger{})

	body, contentType := multipartBody(t,
		map[string]string{"title": "   "},
		[]filePart{{field: "file", filename: "a.mp4", content: []byte("x")}},
	)

	req := httptest.NewRequest("POST", "/api/movies/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(store.records) != 0 {
		t.Errorf("store has %d records after rejected upload, want 0", len(store.records))
	}
}

func TestUploadMovieNotMultipart(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), &fakePinger{})

	req := httptest.NewRequest("POST", "/api/movies/upload", strings.NewReader("just text"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateMovie(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedMovie(t, store, "before")
	router := newTestRouter(t, store, &fakePinger{})

	form := url.Values{"title": {"after"}, "description": {"updated"}}
	req := httptest.NewRequest("PUT", "/api/movies/1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	updated, err := store.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if updated.Title != "after" {
		t.Errorf("Title = %q, want %q", updated.Title, "after")
	}
	if updated.Description != "updated" {
		t.Errorf("Description = %q, want %q", updated.Description, "updated")
	}
}

func TestUpdateMovieNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), &fakePinger{})

	form := url.Values{"title": {"whatever"}}
	req := httptest.NewRequest("PUT", "/api/movies/77", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteMovie(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedMovie(t, store, "victim")
	router := newTestRouter(t, store, &fakePinger{})

	req := httptest.NewRequest("DELETE", "/api/movies/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(store.records) != 0 {
		t.Errorf("store has %d records after delete, want 0", len(store.records))
	}

	// Second delete is a clean 404
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/movies/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestUploadPoster(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field string
	}{
		{"poster field", "poster"},
		{"file field fallback", "file"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			seedMovie(t, store, "artless")
			router := newTestRouter(t, store, &fakePinger{})

			body, contentType := multipartBody(t, nil,
				[]filePart{{field: tt.field, filename: "art.png", content: pngBytes(t)}})

			req := httptest.NewRequest("POST", "/api/movies/1/poster", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}

			updated, err := store.GetByID(context.Background(), 1)
			if err != nil {
				t.Fatalf("GetByID error: %v", err)
			}
			if !strings.HasPrefix(updated.PosterURL, "/posters/") {
				t.Errorf("PosterURL = %q, want /posters/ prefix", updated.PosterURL)
			}
		})
	}
}

func TestUploadPosterInvalidImage(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedMovie(t, store, "unchanged")
	router := newTestRouter(t, store, &fakePinger{})

	body, contentType := multipartBody(t, nil,
		[]filePart{{field: "poster", filename: "bogus.png", content: []byte("not an image")}})

	req := httptest.NewRequest("POST", "/api/movies/1/poster", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	movie, err := store.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if movie.PosterURL != "" {
		t.Errorf("PosterURL = %q, want unchanged empty value", movie.PosterURL)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		pingErr    error
		wantStatus int
	}{
		{"health ok", "/health", nil, http.StatusOK},
		{"health database down", "/health", errors.New("connection refused"), http.StatusServiceUnavailable},
		{"liveness ignores database", "/livez", errors.New("connection refused"), http.StatusOK},
		{"readiness ok", "/readyz", nil, http.StatusOK},
		{"readiness database down", "/readyz", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(t, newFakeStore(), &fakePinger{err: tt.pingErr})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), &fakePinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode version response: %v", err)
	}
	if info["version"] == "" {
		t.Error("version field is empty")
	}
	if info["goVersion"] == "" {
		t.Error("goVersion field is empty")
	}
}
