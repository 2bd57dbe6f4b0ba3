package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

// ErrObjectNotFound is returned by Open when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is a flat byte-blob store keyed by generated file names.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

// New builds the backend selected by cfg.Mode.
func New(ctx context.Context, log *logger.Logger, cfg Config) (ObjectStore, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	switch cfg.Mode {
	case ModeLocal:
		return NewLocalStore(log, cfg.LocalDir, cfg.LocalPublicPath)
	case ModeGCS, ModeGCSEmulator:
		return NewGCSStore(ctx, log, cfg)
	case ModeS3:
		return NewS3Store(ctx, log, cfg)
	}
	return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
}

// ValidKey rejects keys that could escape a flat namespace.
func ValidKey(key string) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return fmt.Errorf("empty object key")
	}
	if strings.ContainsAny(k, `/\`) || k == "." || k == ".." || path.Clean(k) != k {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".bmp"):
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
