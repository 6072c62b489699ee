// Package storage issues presigned upload URLs against S3-compatible object
// storage and removes objects that are no longer referenced.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

// allowedImageTypes maps accepted upload content types to the extension the
// object key gets.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// PresignedUpload is what the admin UI needs to PUT a file directly to storage.
type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	Key       string    `json:"key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store interface {
	PresignUpload(ctx context.Context, prefix, contentType string) (*PresignedUpload, error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

type S3Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	expiry    time.Duration
}

// NewS3Store builds a client without contacting the endpoint; with a region
// set, presigning is done locally.
func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	publicURL := cfg.PublicBaseURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		expiry:    expiry,
	}, nil
}

// ObjectKey returns prefix/<uuid><ext> for an accepted content type.
func ObjectKey(prefix, contentType string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedContentType
	}
	return path.Join(prefix, uuid.NewString()+ext), nil
}

func (s *S3Store) PresignUpload(ctx context.Context, prefix, contentType string) (*PresignedUpload, error) {
	key, err := ObjectKey(prefix, contentType)
	if err != nil {
		return nil, err
	}

	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		UploadURL: u.String(),
		Key:       key,
		PublicURL: s.PublicURL(key),
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}, nil
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PublicURL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}
