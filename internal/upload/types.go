package upload

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// InitiateRequest starts a multipart upload.
type InitiateRequest struct {
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	FieldName string `json:"field_name,omitempty"`
}

type InitiateResponse struct {
	UploadID string `json:"upload_id"`
	FileKey  string `json:"file_key"`
}

// SignPartRequest asks for a presigned URL for one part.
type SignPartRequest struct {
	UploadID   string     `json:"upload_id"`
	FileKey    string     `json:"file_key"`
	PartNumber PartNumber `json:"part_number"`
}

type SignPartResponse struct {
	URL string `json:"url"`
}

// CompleteRequest carries the part manifest collected by the client. The
// part field names match what S3 returns to browsers.
type CompleteRequest struct {
	UploadID string          `json:"upload_id"`
	FileKey  string          `json:"file_key"`
	Parts    []CompletedPart `json:"parts"`
}

type CompletedPart struct {
	ETag       string `json:"ETag"`
	PartNumber int32  `json:"PartNumber"`
}

type AbortRequest struct {
	UploadID string `json:"upload_id"`
	FileKey  string `json:"file_key"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

const (
	StatusComplete = "complete"
	StatusAborted  = "aborted"
)

// PresignRequest asks for a browser form upload, for files small enough to
// skip the multipart protocol. It arrives as query parameters.
type PresignRequest struct {
	FileName  string
	FileType  string
	FieldName string
}

// PresignResponse carries a presigned POST: the client submits a multipart
// form to URL with Fields followed by the file.
type PresignResponse struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	FileKey   string            `json:"file_key"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// PartNumber keeps the raw part_number value so it can arrive as a JSON
// number or a numeric string. Coercion happens in the service.
type PartNumber string

func (p *PartNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PartNumber(s)
		return nil
	}
	*p = PartNumber(data)
	return nil
}

// Int parses the part number. Surrounding whitespace is ignored.
func (p PartNumber) Int() (int32, error) {
	n, err := strconv.ParseInt(string(bytes.TrimSpace([]byte(p))), 10, 32)
	return int32(n), err
}

// ErrorResponse represents error responses from the upload API
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Standard error codes
const (
	ErrCodeMissingParameter = "missing_parameter"
	ErrCodeInvalidPart      = "invalid_part"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeStorage          = "storage_error"
)
