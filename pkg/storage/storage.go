// Package storage wraps the S3-compatible bucket that holds product images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the bucket or credentials are missing
var ErrNotConfigured = errors.New("object storage is not configured")

// cacheControl lets CDNs keep uploaded objects for a year; keys never repeat
const cacheControl = "max-age=31536000"

// ObjectStore stores objects and hands out time-limited read URLs
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// S3Store is an ObjectStore backed by any S3-compatible endpoint
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	logger    *zap.Logger
}

// Option customizes the underlying S3 client
type Option func(*s3.Options)

// WithHTTPClient overrides the transport, used by tests
func WithHTTPClient(c s3.HTTPClient) Option {
	return func(o *s3.Options) { o.HTTPClient = c }
}

// NewS3Store builds a client for cfg. Path-style addressing is used because
// most S3-compatible providers do not serve virtual-hosted buckets.
func NewS3Store(cfg config.StorageConfig, logger *zap.Logger, opts ...Option) (*S3Store, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	options := s3.Options{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	for _, opt := range opts {
		opt(&options)
	}

	client := s3.New(options)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		logger:    logger,
	}, nil
}

// Put uploads body under key
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(cacheControl),
		Metadata:      metadata,
	})
	if err != nil {
		s.logger.Error("Failed to put object",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("Object stored",
		zap.String("key", key),
		zap.Int("size", len(body)),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

// SignedURL presigns a GET for key
func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > config.DefaultSignedURLTTL {
		ttl = config.DefaultSignedURLTTL
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Ping checks the bucket is reachable with the configured credentials
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
