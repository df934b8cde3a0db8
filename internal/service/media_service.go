package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-service/internal/media"
	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/pkg/storage"
	"catalog-service/prometheus"

	"go.uber.org/zap"
)

// Rejection records why one uploaded file was skipped
type Rejection struct {
	Name   string
	Reason error
}

// UploadResult lists the URLs of stored files in upload order
type UploadResult struct {
	URLs     []string
	Rejected []Rejection

	notice string
}

// Message describes why files were skipped, empty when every file was stored.
// It names the failure kind only, never the client's file names.
func (r *UploadResult) Message() string {
	return r.notice
}

// MediaConfig holds upload policy
type MediaConfig struct {
	AllowedTypes []string
	MaxSize      int64
	SignedURLTTL time.Duration
}

// MediaService stores product images and maintains product reference lists
type MediaService struct {
	store    storage.ObjectStore
	products repository.ProductRepository
	cfg      MediaConfig
	metrics  *prometheus.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewMediaService creates a MediaService. A nil store makes every upload fail
// with ErrStorageUnavailable.
func NewMediaService(store storage.ObjectStore, products repository.ProductRepository, cfg MediaConfig, metrics *prometheus.Metrics, logger *zap.Logger) *MediaService {
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = media.AllowedTypes
	}
	return &MediaService{
		store:    store,
		products: products,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Upload validates files, stores the accepted ones and returns their signed
// URLs. Invalid files are skipped; if none is valid the first rejection is
// returned as the error.
func (s *MediaService) Upload(ctx context.Context, files []media.File) (*UploadResult, error) {
	if s.store == nil {
		s.logger.Error("Upload attempted without object storage configured")
		return nil, newError(ErrStorageUnavailable, "Storage service not configured", nil)
	}
	if len(files) == 0 {
		return nil, validation("No file uploaded")
	}

	result := &UploadResult{}
	accepted := make([]media.File, 0, len(files))
	for _, f := range files {
		f.ContentType = media.ResolveContentType(f.Name, f.ContentType, f.Data)
		if err := media.Validate(f.ContentType, f.Size(), s.cfg.MaxSize, s.cfg.AllowedTypes); err != nil {
			s.metrics.RecordUpload("rejected", f.Size())
			s.logger.Warn("Upload rejected",
				zap.String("file", f.Name),
				zap.String("content_type", f.ContentType),
				zap.Int64("size", f.Size()),
				zap.Error(err),
			)
			result.Rejected = append(result.Rejected, Rejection{Name: f.Name, Reason: err})
			continue
		}
		accepted = append(accepted, f)
	}
	if len(accepted) == 0 {
		return nil, s.rejectionError(result.Rejected[0].Reason)
	}
	if len(result.Rejected) > 0 {
		result.notice = "Some files were skipped. " + Message(s.rejectionError(result.Rejected[0].Reason))
	}

	for _, f := range accepted {
		url, err := s.put(ctx, f)
		if err != nil {
			return nil, err
		}
		result.URLs = append(result.URLs, url)
	}
	return result, nil
}

func (s *MediaService) put(ctx context.Context, f media.File) (string, error) {
	now := s.now()
	key := media.StorageKey(now, f.Name, f.ContentType)
	metadata := map[string]string{
		"original-filename": media.SanitizeName(f.Name, f.ContentType),
		"upload-timestamp":  now.UTC().Format(time.RFC3339),
	}

	if err := s.store.Put(ctx, key, f.Data, f.ContentType, metadata); err != nil {
		s.metrics.RecordUpload("failed", f.Size())
		s.logger.Error("Failed to store upload", zap.String("key", key), zap.Error(err))
		return "", newError(ErrStorageUnavailable, "Failed to upload image to storage", err)
	}
	s.metrics.RecordUpload("stored", f.Size())

	url, err := s.store.SignedURL(ctx, key, s.cfg.SignedURLTTL)
	if err != nil {
		s.logger.Error("Failed to sign upload URL", zap.String("key", key), zap.Error(err))
		return "", newError(ErrStorageUnavailable, "Failed to upload image to storage", err)
	}

	s.logger.Info("Image stored",
		zap.String("key", key),
		zap.String("content_type", f.ContentType),
		zap.Int64("size", f.Size()),
	)
	return url, nil
}

func (s *MediaService) rejectionError(reason error) error {
	switch {
	case errors.Is(reason, media.ErrInvalidType):
		return newError(ErrInvalidType, "Invalid file type. Only JPEG, PNG, WebP and GIF images are allowed.", reason)
	case errors.Is(reason, media.ErrTooLarge):
		return newError(ErrTooLarge, "File too large. Maximum size: "+media.HumanSize(s.cfg.MaxSize), reason)
	default:
		return newError(ErrValidation, "No file uploaded", reason)
	}
}

// AttachImages stores files and appends their URLs to the product's reference
// list. The product is only written once every accepted file is stored.
func (s *MediaService) AttachImages(ctx context.Context, rawID string, files []media.File) (*model.Product, *UploadResult, error) {
	product, err := s.product(ctx, rawID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.Upload(ctx, files)
	if err != nil {
		return nil, nil, err
	}

	images := product.Images.Append(result.URLs...)
	if err := s.products.UpdateImages(ctx, product.ID, images); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, newError(ErrNotFound, "Product not found", nil)
		}
		return nil, nil, storeFailure("Failed to update product images", err)
	}

	updated, err := s.product(ctx, rawID)
	if err != nil {
		return nil, nil, err
	}
	return updated, result, nil
}

// RemoveImage drops url from the product's reference list. The stored object
// is not deleted.
func (s *MediaService) RemoveImage(ctx context.Context, rawID, url string) (*model.Product, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, validation("Image URL is required")
	}
	product, err := s.product(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if !product.Images.Contains(url) {
		return product, nil
	}

	product.Images = product.Images.Remove(url)
	if err := s.products.UpdateImages(ctx, product.ID, product.Images); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Product not found", nil)
		}
		return nil, storeFailure("Failed to update product images", err)
	}
	return s.product(ctx, rawID)
}

func (s *MediaService) product(ctx context.Context, rawID string) (*model.Product, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return nil, validation("Product ID is required")
	}
	product, err := s.products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found", nil)
	}
	if err != nil {
		return nil, storeFailure("Failed to retrieve product", err)
	}
	return product, nil
}
