package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"movievault/internal/metrics"
	"movievault/internal/s3"
)

// PartURLTTL is how long a presigned part or single-upload URL stays valid.
const PartURLTTL = 3600 * time.Second

// Service runs the multipart upload protocol against an ObjectStore. It keeps
// no state between calls: every request carries the upload ID and key, and
// the store is the authority on whether they identify a live upload.
type Service struct {
	store  ObjectStore
	logger *zap.SugaredLogger
}

func NewService(store ObjectStore, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Initiate opens a multipart upload under a freshly generated key.
func (s *Service) Initiate(ctx context.Context, req *InitiateRequest) (resp *InitiateResponse, err error) {
	defer func() { metrics.ObserveUpload("initiate", err) }()

	if m := missingFields("file_name", req.FileName, "file_type", req.FileType); len(m) > 0 {
		return nil, missing(m...)
	}

	field := ParseLogicalField(req.FieldName)
	key := BuildObjectKey(field, req.FileType, req.FileName)

	uploadID, err := s.store.CreateMultipartUpload(ctx, key, req.FileType)
	if err != nil {
		s.logger.Errorw("create multipart upload failed", "file_key", key, "field", field.String(), "error", err)
		return nil, fmt.Errorf("failed to create multipart upload: %w", err)
	}

	s.logger.Infow("multipart upload initiated", "upload_id", uploadID, "file_key", key, "field", field.String(), "content_type", req.FileType)
	return &InitiateResponse{UploadID: uploadID, FileKey: key}, nil
}

// SignPart returns a presigned URL the client uses to PUT one part directly
// to the store. Part number range is enforced by the store client.
func (s *Service) SignPart(ctx context.Context, req *SignPartRequest) (resp *SignPartResponse, err error) {
	defer func() { metrics.ObserveUpload("sign_part", err) }()

	if m := missingFields("upload_id", req.UploadID, "file_key", req.FileKey, "part_number", string(req.PartNumber)); len(m) > 0 {
		return nil, missing(m...)
	}

	partNumber, err := req.PartNumber.Int()
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidPart, string(req.PartNumber))
	}

	url, err := s.store.PresignUploadPart(ctx, req.FileKey, req.UploadID, partNumber, PartURLTTL)
	if err != nil {
		s.logger.Warnw("presign upload part failed", "upload_id", req.UploadID, "file_key", req.FileKey, "part_number", partNumber, "error", err)
		return nil, fmt.Errorf("failed to presign part %d: %w", partNumber, err)
	}

	return &SignPartResponse{URL: url}, nil
}

// Complete assembles the uploaded parts into the final object.
func (s *Service) Complete(ctx context.Context, req *CompleteRequest) (resp *StatusResponse, err error) {
	defer func() { metrics.ObserveUpload("complete", err) }()

	m := missingFields("upload_id", req.UploadID, "file_key", req.FileKey)
	if len(req.Parts) == 0 {
		m = append(m, "parts")
	}
	if len(m) > 0 {
		return nil, missing(m...)
	}

	parts := make([]s3.PartInfo, len(req.Parts))
	for i, p := range req.Parts {
		parts[i] = s3.PartInfo{ETag: p.ETag, PartNumber: p.PartNumber}
	}

	if err := s.store.CompleteMultipartUpload(ctx, req.FileKey, req.UploadID, parts); err != nil {
		s.logger.Errorw("complete multipart upload failed", "upload_id", req.UploadID, "file_key", req.FileKey, "parts", len(parts), "error", err)
		return nil, fmt.Errorf("failed to complete multipart upload: %w", err)
	}

	s.logger.Infow("multipart upload completed", "upload_id", req.UploadID, "file_key", req.FileKey, "parts", len(parts))
	return &StatusResponse{Status: StatusComplete}, nil
}

// Abort discards the upload. A store reporting the upload as already gone is
// returned as an error like any other failure.
func (s *Service) Abort(ctx context.Context, req *AbortRequest) (resp *StatusResponse, err error) {
	defer func() { metrics.ObserveUpload("abort", err) }()

	if m := missingFields("upload_id", req.UploadID, "file_key", req.FileKey); len(m) > 0 {
		return nil, missing(m...)
	}

	if err := s.store.AbortMultipartUpload(ctx, req.FileKey, req.UploadID); err != nil {
		s.logger.Errorw("abort multipart upload failed", "upload_id", req.UploadID, "file_key", req.FileKey, "error", err)
		return nil, fmt.Errorf("failed to abort multipart upload: %w", err)
	}

	s.logger.Infow("multipart upload aborted", "upload_id", req.UploadID, "file_key", req.FileKey)
	return &StatusResponse{Status: StatusAborted}, nil
}

// PresignUpload issues a presigned form upload under the same key policy as
// Initiate.
func (s *Service) PresignUpload(ctx context.Context, req *PresignRequest) (resp *PresignResponse, err error) {
	defer func() { metrics.ObserveUpload("presign", err) }()

	if m := missingFields("file_name", req.FileName, "file_type", req.FileType); len(m) > 0 {
		return nil, missing(m...)
	}

	key := BuildObjectKey(ParseLogicalField(req.FieldName), req.FileType, req.FileName)
	expiresAt := time.Now().Add(PartURLTTL)

	url, fields, err := s.store.PresignPostObject(ctx, key, req.FileType, PartURLTTL)
	if err != nil {
		s.logger.Errorw("presign post object failed", "file_key", key, "error", err)
		return nil, fmt.Errorf("failed to generate presigned upload: %w", err)
	}

	return &PresignResponse{
		URL:       url,
		Fields:    fields,
		FileKey:   key,
		ExpiresAt: expiresAt,
	}, nil
}

// missingFields takes name/value pairs and returns the names whose value is
// blank.
func missingFields(pairs ...string) []string {
	var names []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			names = append(names, pairs[i])
		}
	}
	return names
}
