package upload

import (
	"context"
	"time"

	"movievault/internal/s3"
)

// ObjectStore is the subset of the storage client the orchestrator drives.
// *s3.Client satisfies it; tests substitute a mock.
type ObjectStore interface {
	CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, expires time.Duration) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []s3.PartInfo) error
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error
	PresignPostObject(ctx context.Context, key, contentType string, expires time.Duration) (string, map[string]string, error)
}
