package s3

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Backend failure kinds. Errors returned by Client wrap one of these together
// with the original SDK error, so the backend message is kept verbatim.
// ErrETagMismatch covers any manifest entry the store cannot match to an
// uploaded part, whether the ETag is wrong or the part was never uploaded.
var (
	ErrStoreUnavailable  = errors.New("object store unavailable")
	ErrStoreRejected     = errors.New("object store rejected request")
	ErrInvalidPart       = errors.New("invalid part number")
	ErrIncompletePartSet = errors.New("incomplete part set")
	ErrETagMismatch      = errors.New("etag mismatch")
	ErrNoSuchUpload      = errors.New("no such upload")
	ErrNotFound          = errors.New("object not found")
)

func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%w: %w", kindForCode(apiErr.ErrorCode()), err)
}

func kindForCode(code string) error {
	switch code {
	case "NoSuchUpload":
		return ErrNoSuchUpload
	case "InvalidPart":
		// S3 uses InvalidPart both for an ETag that does not match and for a
		// part that was never uploaded, so a manifest naming a missing part
		// also lands here rather than in ErrIncompletePartSet.
		return ErrETagMismatch
	case "InvalidPartOrder", "EntityTooSmall":
		return ErrIncompletePartSet
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
		return ErrStoreUnavailable
	default:
		return ErrStoreRejected
	}
}
