package media

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	utils "movievault/internal"
	"movievault/internal/response"
	"movievault/internal/s3"
)

type Handler struct {
	mediaService *Service
	maxAge       int
	logger       *zap.SugaredLogger
}

// NewHandler builds the media handler. maxAge is the Cache-Control max-age in
// seconds used when a kind has no cache_duration of its own.
func NewHandler(mediaService *Service, maxAge int, logger *zap.SugaredLogger) *Handler {
	if maxAge <= 0 {
		// 24 hours
		maxAge = 86400
	}
	return &Handler{
		mediaService: mediaService,
		maxAge:       maxAge,
		logger:       logger,
	}
}

// Register mounts the public rendition route and the guarded warm-up route.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /media/images/{kind}/{file}", h.HandleRendition)
	mux.Handle("POST /media/images/{kind}/{file}/warm", guard(http.HandlerFunc(h.HandleWarm)))
}

// HandleRendition handles GET /media/images/{kind}/{file}?width=&quality=
func (h *Handler) HandleRendition(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	file := utils.BaseName(r.PathValue("file"))
	if file == "" {
		response.WriteError(w, http.StatusBadRequest, "Image name required")
		return
	}

	width, quality, err := parseQueryParams(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := h.mediaService.Rendition(r.Context(), kind, file, width, quality)
	if err != nil {
		h.writeServiceError(w, kind, file, err)
		return
	}

	so, _ := h.mediaService.Options(kind)
	cd := so.CacheDuration
	if cd == 0 {
		cd = h.maxAge
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", cd))
	w.Header().Set("ETag", strconv.Quote(img.Key))
	if _, err := w.Write(img.Data); err != nil {
		h.logger.Debugw("error writing rendition", "file", file, "error", err)
	}
}

// HandleWarm handles POST /media/images/{kind}/{file}/warm
func (h *Handler) HandleWarm(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	file := utils.BaseName(r.PathValue("file"))
	if file == "" {
		response.WriteError(w, http.StatusBadRequest, "Image name required")
		return
	}

	keys, err := h.mediaService.Warm(r.Context(), kind, file)
	if err != nil {
		h.writeServiceError(w, kind, file, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string][]string{"renditions": keys})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, kind, file string, err error) {
	switch {
	case errors.Is(err, ErrUnknownKind):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, s3.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, "Image not found")
	default:
		h.logger.Errorw("error processing image", "kind", kind, "file", file, "error", err)
		response.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Parse query params for width and quality. Zero means not given.
func parseQueryParams(r *http.Request) (width, quality int, err error) {
	if v := r.URL.Query().Get("width"); v != "" {
		width, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid width parameter")
		}
		if width <= 0 || width > 2048 {
			return 0, 0, fmt.Errorf("width must be between 1 and 2048")
		}
	}

	if v := r.URL.Query().Get("quality"); v != "" {
		quality, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid quality parameter")
		}
		if quality < 1 || quality > 100 {
			return 0, 0, fmt.Errorf("quality must be between 1 and 100")
		}
	}

	return width, quality, nil
}
