package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

// localStore writes objects into a single directory that the HTTP layer
// serves statically under publicPath.
type localStore struct {
	log        *logger.Logger
	dir        string
	publicPath string
}

func NewLocalStore(log *logger.Logger, dir, publicPath string) (ObjectStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("local object store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	publicPath = "/" + strings.Trim(strings.TrimSpace(publicPath), "/")
	storeLog := log.With("service", "LocalStore")
	storeLog.Info("Object storage initialized", "mode", ModeLocal, "dir", dir, "public_path", publicPath)
	return &localStore{log: storeLog, dir: dir, publicPath: publicPath}, nil
}

// Dir is the directory mounted at the public path.
func (s *localStore) Dir() string { return s.dir }

func (s *localStore) Upload(ctx context.Context, key string, r io.Reader) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close object %q: %w", key, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit object %q: %w", key, err)
	}
	return nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	return f, nil
}

func (s *localStore) PublicURL(key string) string {
	return s.publicPath + "/" + strings.TrimLeft(strings.TrimSpace(key), "/")
}

// LocalDir reports the directory backing store when it is disk based.
func LocalDir(store ObjectStore) (string, bool) {
	ls, ok := store.(*localStore)
	if !ok {
		return "", false
	}
	return ls.dir, true
}
