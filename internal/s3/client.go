package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "movievault/internal/config"
)

const (
	MinPartNumber = 1
	MaxPartNumber = 10000
)

// Client wraps a single long-lived S3 client and presigner for one bucket.
// It is safe for concurrent use.
type Client struct {
	s3Client  *s3.Client
	bucket    string
	presigner *s3.PresignClient
}

// NewClient builds the client once from process configuration. Static
// credentials are used when both keys are present, otherwise the default
// AWS credential chain applies.
func NewClient(ctx context.Context, cfg *appconfig.Config) (*Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		s3Client:  s3Client,
		bucket:    cfg.S3Bucket,
		presigner: s3.NewPresignClient(s3Client),
	}, nil
}

// Bucket returns the bucket every call operates on.
func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

func (c *Client) PutObject(ctx context.Context, key, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := c.s3Client.PutObject(ctx, input)
	return classify(err)
}

// PresignPostObject generates a presigned browser form upload for key. The
// returned fields must be sent as form values ahead of the file. The policy
// pins the key and, when given, the content type.
func (c *Client) PresignPostObject(ctx context.Context, key, contentType string, expires time.Duration) (string, map[string]string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}

	var conditions []interface{}
	if contentType != "" {
		conditions = append(conditions, map[string]string{"Content-Type": contentType})
	}

	request, err := c.presigner.PresignPostObject(ctx, input, func(o *s3.PresignPostOptions) {
		o.Expires = expires
		o.Conditions = conditions
	})
	if err != nil {
		return "", nil, classify(err)
	}

	fields := make(map[string]string, len(request.Values)+1)
	for k, v := range request.Values {
		fields[k] = v
	}
	if contentType != "" {
		fields["Content-Type"] = contentType
	}
	return request.URL, fields, nil
}

// PresignGetObject generates a time-limited read URL for a stored object.
func (c *Client) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	request, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", classify(err)
	}

	return request.URL, nil
}

// CreateMultipartUpload opens a multipart upload and returns its upload ID.
func (c *Client) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.s3Client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", classify(err)
	}

	return aws.ToString(result.UploadId), nil
}

// PresignUploadPart generates a presigned URL for uploading one part.
func (c *Client) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, expires time.Duration) (string, error) {
	if partNumber < MinPartNumber || partNumber > MaxPartNumber {
		return "", fmt.Errorf("%w: part number %d outside %d-%d", ErrInvalidPart, partNumber, MinPartNumber, MaxPartNumber)
	}

	input := &s3.UploadPartInput{
		Bucket:     aws.String(c.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}

	request, err := c.presigner.PresignUploadPart(ctx, input, s3.WithPresignExpires(expires))
	if err != nil {
		return "", classify(err)
	}

	return request.URL, nil
}

// CompleteMultipartUpload assembles the object from the given part manifest.
// Parts are sent in the order given.
func (c *Client) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []PartInfo) error {
	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &s3Types.CompletedMultipartUpload{
			Parts: completedParts(parts),
		},
	}

	_, err := c.s3Client.CompleteMultipartUpload(ctx, input)
	return classify(err)
}

// AbortMultipartUpload discards an upload and every part stored for it.
func (c *Client) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	input := &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	}

	_, err := c.s3Client.AbortMultipartUpload(ctx, input)
	return classify(err)
}

func completedParts(parts []PartInfo) []s3Types.CompletedPart {
	completed := make([]s3Types.CompletedPart, len(parts))
	for i, part := range parts {
		completed[i] = s3Types.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(part.PartNumber),
		}
	}
	return completed
}

// PartInfo represents a completed part for multipart upload
type PartInfo struct {
	ETag       string
	PartNumber int32
}
