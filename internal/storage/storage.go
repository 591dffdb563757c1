// Package storage persists photo bytes in S3-compatible object storage or on local disk.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/babbageLabs/insta-lite/internal/config"

	"github.com/google/uuid"
)

// BlobStore stores immutable objects by key and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Health(ctx context.Context) error
}

// ObjectKey builds a collision-free key: photos/<unix-ms>-<uuid><ext>.
func ObjectKey(now time.Time, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("photos/%d-%s%s", now.UnixMilli(), uuid.NewString(), strings.ToLower(ext))
}

// VariantKey derives the key of a derived object, e.g. photos/a.jpg -> photos/a_thumb.jpg.
func VariantKey(key, suffix, ext string) string {
	base := key
	if i := strings.LastIndex(key, "."); i > strings.LastIndex(key, "/") {
		base = key[:i]
	}
	return base + "_" + suffix + ext
}

// New returns the BlobStore selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3Store(ctx, S3Config{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3ForcePathStyle,
			Bucket:         cfg.S3Bucket,
			PublicBaseURL:  cfg.S3PublicBaseURL,
		})
	case "", "disk":
		return NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
