package service

import (
	"context"
	"fmt"

	"storefront/internal/storage"

	"go.uber.org/zap"
)

const productImagePrefix = "products"

type UploadService interface {
	PresignProductImage(ctx context.Context, filename, contentType string) (*storage.PresignedUpload, error)
}

type uploadService struct {
	store  storage.Store
	logger *zap.Logger
}

func NewUploadService(store storage.Store, logger *zap.Logger) UploadService {
	return &uploadService{store: store, logger: logger}
}

// PresignProductImage ignores the client filename for the key; the
// extension comes from the content type.
func (s *uploadService) PresignProductImage(ctx context.Context, filename, contentType string) (*storage.PresignedUpload, error) {
	upload, err := s.store.PresignUpload(ctx, productImagePrefix, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	s.logger.Debug("Presigned product image upload",
		zap.String("filename", filename),
		zap.String("key", upload.Key),
	)
	return upload, nil
}
