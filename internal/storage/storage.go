// Package storage keeps uploaded documents either on the local disk or in an
// S3 compatible bucket. Keys are slash separated paths relative to the store
// root, e.g. "clients/12/7f9c....pdf".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/config"
)

type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// CleanKey normalises a client supplied key and rejects anything escaping
// the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	key = strings.TrimPrefix(key, "uploads/")
	if key == "" {
		return "", apperr.Validation("path", "chemin requis")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", apperr.Validation("path", "chemin invalide")
	}
	return cleaned, nil
}

var errNotExist = errors.New("storage: object does not exist")

func notFound(key string) error {
	return fmt.Errorf("%w: %w", apperr.NotFound("document", key), errNotExist)
}

// New builds the store selected by cfg.Storage.Driver
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return NewLocalStore(cfg.Upload.Dir)
	}
}
