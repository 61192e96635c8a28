package upload

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"movievault/internal/response"
)

type Handler struct {
	uploadService *Service
	logger        *zap.SugaredLogger
}

func NewHandler(uploadService *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// Register mounts the upload routes on mux, with and without a trailing
// slash. Every route passes through guard, which must reject non-privileged
// callers before the handler runs.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	handle := func(pattern string, fn http.HandlerFunc) {
		guarded := guard(fn)
		mux.Handle(pattern, guarded)
		mux.Handle(pattern+"/{$}", guarded)
	}

	handle("POST /api/movies/upload/initiate", h.HandleInitiate)
	handle("POST /api/movies/upload/sign-part", h.HandleSignPart)
	handle("POST /api/movies/upload/complete", h.HandleComplete)
	handle("POST /api/movies/upload/abort", h.HandleAbort)
	handle("GET /api/movies/upload/presigned-url", h.HandlePresign)
}

// HandleInitiate handles POST /api/movies/upload/initiate/
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.uploadService.Initiate(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// HandleSignPart handles POST /api/movies/upload/sign-part/
func (h *Handler) HandleSignPart(w http.ResponseWriter, r *http.Request) {
	var req SignPartRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.uploadService.SignPart(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// HandleComplete handles POST /api/movies/upload/complete/
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.uploadService.Complete(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// HandleAbort handles POST /api/movies/upload/abort/
func (h *Handler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	var req AbortRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.uploadService.Abort(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// HandlePresign handles GET /api/movies/upload/presigned-url/?file_name=&file_type=&field_name=
func (h *Handler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := PresignRequest{
		FileName:  q.Get("file_name"),
		FileType:  q.Get("file_type"),
		FieldName: q.Get("field_name"),
	}

	resp, err := h.uploadService.PresignUpload(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// decode reads the JSON body into v. An empty body decodes to the zero value
// so that missing fields are reported as such rather than as a parse error.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body", "Send a JSON object")
	return false
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	hint := ""
	switch code {
	case ErrCodeMissingParameter:
		hint = "Check the required fields for this operation"
	case ErrCodeInvalidPart:
		hint = "part_number must be an integer between 1 and 10000"
	}
	h.writeError(w, status, code, err.Error(), hint)
}

// writeError writes a standardized error response
func (h *Handler) writeError(w http.ResponseWriter, statusCode int, code, message, hint string) {
	response.JSON(w, statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Hint:    hint,
	})
}
