package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/factuurdesk/backend/internal/infrastructure/config"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"go.uber.org/zap"
)

const defaultPresignExpiration = 15 * time.Minute

// S3DocumentSink archives documents in an S3-compatible bucket (AWS S3,
// MinIO, RustFS, ...). Keys follow {prefix}/{organization}/{year}/{month}/{filename}.
type S3DocumentSink struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	keyPrefix         string
	presignExpiration time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

// S3Option configures an S3DocumentSink
type S3Option func(*S3DocumentSink)

// WithLogger sets the sink's logger
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3DocumentSink) {
		s.logger = logger
	}
}

// WithPresignExpiration sets how long returned download URLs stay valid
func WithPresignExpiration(d time.Duration) S3Option {
	return func(s *S3DocumentSink) {
		s.presignExpiration = d
	}
}

// NewS3DocumentSink creates a sink from configuration
func NewS3DocumentSink(cfg *infraconfig.StorageConfig, opts ...S3Option) (*S3DocumentSink, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	sink := &S3DocumentSink{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		keyPrefix:         strings.Trim(cfg.KeyPrefix, "/"),
		presignExpiration: defaultPresignExpiration,
		logger:            zap.NewNop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(sink)
	}
	sink.logger = sink.logger.Named("document_archive")

	return sink, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it does not exist
func (s *S3DocumentSink) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Store uploads the document and returns its key plus a presigned download URL
func (s *S3DocumentSink) Store(ctx context.Context, req *rendering.StoreRequest) (*rendering.StoreResult, error) {
	if err := validateStoreRequest(req); err != nil {
		return nil, err
	}

	key := s.objectKey(req)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(req.Data),
		ContentLength: aws.Int64(int64(len(req.Data))),
		ContentType:   aws.String(req.ContentType),
	})
	if err != nil {
		return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "failed to upload document", err)
	}

	result := &rendering.StoreResult{Path: key, Size: int64(len(req.Data))}
	if u, err := s.DownloadURL(ctx, key); err == nil {
		result.URL = u
	} else {
		s.logger.Warn("Failed to presign document URL", zap.String("key", key), zap.Error(err))
	}

	s.logger.Info("Document archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(req.Data)))
	return result, nil
}

// DownloadURL returns a presigned GET URL for key
func (s *S3DocumentSink) DownloadURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	presigned, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return presigned.URL, nil
}

// Delete removes an archived document
func (s *S3DocumentSink) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Bucket returns the bucket name
func (s *S3DocumentSink) Bucket() string {
	return s.bucket
}

func (s *S3DocumentSink) objectKey(req *rendering.StoreRequest) string {
	now := s.now()
	return path.Join(
		s.keyPrefix,
		req.OrganizationID.String(),
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		req.Filename,
	)
}

var _ rendering.DocumentSink = (*S3DocumentSink)(nil)
