package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"movie-stream/internal/movies"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50

	// multipartMemoryLimit is how much of a multipart body is held in memory
	// before the parser spills parts to temp files.
	multipartMemoryLimit = 32 << 20
)

// ListMovies handles GET /api/movies: a paginated, optionally filtered
// catalog listing. Page number and size are clamped here, not in the store.
func (h *Handlers) ListMovies(w http.ResponseWriter, r *http.Request) {
	opts := movies.SearchOptions{
		Search:   r.URL.Query().Get("search"),
		Page:     1,
		PageSize: defaultPageSize,
	}

	if page, err := strconv.Atoi(r.URL.Query().Get("pageNumber")); err == nil && page > 0 {
		opts.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && size > 0 {
		opts.PageSize = size
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}

	result, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, "Movies retrieved.", result)
}

// GetMovie handles GET /api/movies/{id}.
func (h *Handlers) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.movieID(w, r)
	if !ok {
		return
	}

	movie, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, "Movie retrieved.", movie)
}

// UploadMovie handles POST /api/movies/upload: multipart fields title,
// description (optional), file, and poster (optional). The request context
// is threaded through to the transcoder, so a client disconnect mid-encode
// kills the ffmpeg process.
func (h *Handlers) UploadMovie(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid or oversized multipart form data.", nil)
		return
	}
	defer cleanupMultipart(r)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeFailure(w, http.StatusBadRequest, "A video file is required.", nil)
		return
	}
	defer file.Close()

	req := movies.UploadRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		File:        file,
		Filename:    header.Filename,
	}

	if poster, _, posterErr := r.FormFile("poster"); posterErr == nil {
		defer poster.Close()
		req.Poster = poster
	}

	movie, err := h.service.Upload(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, "Movie uploaded and processed.", movie)
}

// UpdateMovie handles PUT /api/movies/{id}: overwrites title and description.
func (h *Handlers) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.movieID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		// Fall back to a urlencoded body
		if err := r.ParseForm(); err != nil {
			h.writeFailure(w, http.StatusBadRequest, "Invalid form data.", nil)
			return
		}
	}
	defer cleanupMultipart(r)

	movie, err := h.service.Update(r.Context(), id, r.FormValue("title"), r.FormValue("description"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, "Movie updated.", movie)
}

// DeleteMovie handles DELETE /api/movies/{id}: removes the HLS tree, the
// poster, and the catalog row.
func (h *Handlers) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.movieID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, "Movie and all related assets deleted.", nil)
}

// UploadPoster handles POST /api/movies/{id}/poster.
func (h *Handlers) UploadPoster(w http.ResponseWriter, r *http.Request) {
	id, ok := h.movieID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid or oversized multipart form data.", nil)
		return
	}
	defer cleanupMultipart(r)

	file, _, err := r.FormFile("poster")
	if err != nil {
		// Accept "file" as the field name too; the original client sent that
		if file, _, err = r.FormFile("file"); err != nil {
			h.writeFailure(w, http.StatusBadRequest, "A poster image is required.", nil)
			return
		}
	}
	defer file.Close()

	movie, err := h.service.UploadPoster(r.Context(), id, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, "Poster updated.", movie)
}

// movieID parses the {id} route variable, responding 400 on garbage.
func (h *Handlers) movieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid movie id.", nil)
		return 0, false
	}
	return id, true
}

// cleanupMultipart removes the parser's temp files once the handler is done.
func cleanupMultipart(r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	_ = r.MultipartForm.RemoveAll()
}
