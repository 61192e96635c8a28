package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"movievault/internal/auth"
	"movievault/internal/response"
)

type Handler struct {
	catalogService *Service
	logger         *zap.SugaredLogger
}

func NewHandler(catalogService *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// Register mounts the public catalog routes and the guarded admin routes.
// Public routes answer with and without a trailing slash.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	get := func(p string, fn http.HandlerFunc) {
		mux.HandleFunc("GET "+p, fn)
		mux.HandleFunc("GET "+p+"/{$}", fn)
	}

	get("/api/movies/discover", h.HandleDiscover)
	get("/api/movies/popular", h.listHandler(h.catalogService.Popular))
	get("/api/movies/now-playing", h.listHandler(h.catalogService.NowPlaying))
	get("/api/movies/top-rated", h.listHandler(h.catalogService.TopRated))
	get("/api/movies/upcoming", h.listHandler(h.catalogService.Upcoming))

	get("/api/movies/{id}", h.HandleDetail)
	get("/api/movies/{id}/videos", h.HandleVideos)
	get("/api/movies/{id}/images", h.HandleImages)
	get("/api/movies/{id}/stream", h.HandleStream)
	get("/api/movies/{id}/trailer", h.HandleTrailer)

	create := guard(http.HandlerFunc(h.HandleCreate))
	mux.Handle("POST /api/movies", create)
	mux.Handle("POST /api/movies/{$}", create)
	mux.Handle("POST /api/movies/bulk/active", guard(http.HandlerFunc(h.HandleBulkActive)))
	mux.Handle("POST /api/movies/bulk/free-preview", guard(http.HandlerFunc(h.HandleBulkFreePreview)))
}

// HandleDiscover handles GET /api/movies/discover/?sort_by=&page=
func (h *Handler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalogService.Discover(r.Context(), r.URL.Query().Get("sort_by"), pageParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

func (h *Handler) listHandler(list func(ctx context.Context, page int) (*Page, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := list(r.Context(), pageParam(r))
		if err != nil {
			h.writeError(w, err)
			return
		}
		response.JSON(w, http.StatusOK, page)
	}
}

// HandleDetail handles GET /api/movies/{id}/
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	detail, err := h.catalogService.Detail(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, detail)
}

// HandleVideos handles GET /api/movies/{id}/videos/
func (h *Handler) HandleVideos(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	videos, err := h.catalogService.Videos(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, videos)
}

// HandleImages handles GET /api/movies/{id}/images/
func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	images, err := h.catalogService.Images(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, images)
}

// HandleStream handles GET /api/movies/{id}/stream/
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	stream, err := h.catalogService.Stream(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stream)
}

// HandleTrailer handles GET /api/movies/{id}/trailer/
func (h *Handler) HandleTrailer(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	trailer, err := h.catalogService.Trailer(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, trailer)
}

// HandleCreate handles POST /api/movies/
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {err.Error()}})
		return
	}

	movie, err := h.catalogService.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if p, ok := auth.FromContext(r.Context()); ok {
		h.logger.Infow("movie created by", "movie_id", movie.ID, "subject", p.Subject)
	}
	response.JSON(w, http.StatusCreated, movie)
}

// HandleBulkActive handles POST /api/movies/bulk/active
func (h *Handler) HandleBulkActive(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, h.catalogService.SetActive)
}

// HandleBulkFreePreview handles POST /api/movies/bulk/free-preview
func (h *Handler) HandleBulkFreePreview(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, h.catalogService.SetFreePreview)
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, ids []int64, value bool) (int64, error)) {
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 || req.Value == nil {
		response.WriteError(w, http.StatusBadRequest, "ids and value are required")
		return
	}

	n, err := set(r.Context(), req.IDs, *req.Value)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, BulkResponse{Updated: n})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var invalid ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		response.WriteError(w, http.StatusNotFound, "Movie not found")
	case errors.Is(err, ErrNoTrailer):
		response.WriteError(w, http.StatusNotFound, "Trailer not available for this movie")
	case errors.As(err, &invalid):
		response.JSON(w, http.StatusBadRequest, invalid)
	default:
		h.logger.Errorw("catalog request failed", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pageParam reads ?page=, treating anything invalid or below 1 as 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// movieID parses the {id} path value. Non-numeric ids are a miss.
func movieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		response.WriteError(w, http.StatusNotFound, "Movie not found")
		return 0, false
	}
	return id, true
}
