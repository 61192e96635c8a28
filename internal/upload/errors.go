package upload

import (
	"errors"
	"fmt"
	"net/http"

	"movievault/internal/s3"
)

var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidPart      = s3.ErrInvalidPart
)

func missing(fields ...string) error {
	return fmt.Errorf("%w: %v", ErrMissingParameter, fields)
}

// StatusFor maps an orchestrator error to the HTTP status and error code
// returned to the caller. Every backend failure is a 500.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingParameter):
		return http.StatusBadRequest, ErrCodeMissingParameter
	case errors.Is(err, ErrInvalidPart):
		return http.StatusBadRequest, ErrCodeInvalidPart
	default:
		return http.StatusInternalServerError, ErrCodeStorage
	}
}
