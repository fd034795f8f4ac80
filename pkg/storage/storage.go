// Package storage keeps uploaded voice clips in a local directory or an
// object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"LifeLine/pkg/config"
)

var ErrNotFound = errors.New("object not found")

// Store is a flat key/value object store.
type Store interface {
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Read(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}

// New builds the store selected by cfg.Driver.
func New(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStore(cfg.LocalRoot, cfg.PublicBaseURL)
	case "minio":
		return NewMinioStore(MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.PublicBaseURL,
		})
	case "cos":
		return NewCOSStore(cfg.COSBucketURL, cfg.COSSecretID, cfg.COSSecretKey)
	}
	return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
}
