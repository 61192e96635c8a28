package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "movievault/internal/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	cfg := &appconfig.Config{
		S3Bucket:     "movies-test",
		S3Region:     "us-east-1",
		S3Endpoint:   "http://localhost:9000",
		AWSAccessKey: "test-access",
		AWSSecretKey: "test-secret",
	}
	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	return client
}

func TestCompletedParts_PreservesOrderAndValues(t *testing.T) {
	parts := []PartInfo{
		{ETag: `"etag-2"`, PartNumber: 2},
		{ETag: `"etag-1"`, PartNumber: 1},
	}

	completed := completedParts(parts)

	require.Len(t, completed, 2)
	assert.Equal(t, `"etag-2"`, *completed[0].ETag)
	assert.Equal(t, int32(2), *completed[0].PartNumber)
	assert.Equal(t, `"etag-1"`, *completed[1].ETag)
	assert.Equal(t, int32(1), *completed[1].PartNumber)
}

func TestPresignUploadPart_Range(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		partNumber int32
		wantErr    bool
	}{
		{"zero", 0, true},
		{"first", 1, false},
		{"last", 10000, false},
		{"above limit", 10001, true},
		{"negative", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := client.PresignUploadPart(ctx, "movies/full/abc.mp4", "upload-1", tt.partNumber, time.Hour)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPart)
				assert.Empty(t, url)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, url, "partNumber=")
			assert.Contains(t, url, "uploadId=upload-1")
		})
	}
}

func TestPresignPostObject_FormFields(t *testing.T) {
	client := testClient(t)

	url, fields, err := client.PresignPostObject(context.Background(), "movies/thumbnails/abc.png", "image/png", 10*time.Minute)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/movies-test"), url)
	assert.Equal(t, "movies/thumbnails/abc.png", fields["key"])
	assert.Equal(t, "image/png", fields["Content-Type"])
	assert.NotEmpty(t, fields["policy"])
	assert.NotEmpty(t, fields["X-Amz-Signature"])
	assert.Equal(t, "movies-test", client.Bucket())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such upload", &smithy.GenericAPIError{Code: "NoSuchUpload", Message: "The specified upload does not exist."}, ErrNoSuchUpload},
		{"etag mismatch", &smithy.GenericAPIError{Code: "InvalidPart", Message: "One or more of the specified parts could not be found.  The part may not have been uploaded, or the specified entity tag may not match the part's entity tag."}, ErrETagMismatch},
		{"part order", &smithy.GenericAPIError{Code: "InvalidPartOrder", Message: "The list of parts was not in ascending order."}, ErrIncompletePartSet},
		{"too small", &smithy.GenericAPIError{Code: "EntityTooSmall", Message: "Your proposed upload is smaller than the minimum allowed size"}, ErrIncompletePartSet},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}, ErrStoreRejected},
		{"throttled", &smithy.GenericAPIError{Code: "SlowDown", Message: "Please reduce your request rate."}, ErrStoreUnavailable},
		{"network", errors.New("dial tcp: connection refused"), ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(fmt.Errorf("operation error S3: %w", tt.err))
			require.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}

	assert.NoError(t, classify(nil))
}
