package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type gcsStore struct {
	log           *logger.Logger
	client        *storage.Client
	mode          Mode
	emulatorHost  string
	bucket        string
	cdnDomain     string
	publicBaseURL string
	httpClient    *http.Client
}

func NewGCSStore(ctx context.Context, log *logger.Logger, cfg Config) (ObjectStore, error) {
	storeLog := log.With("service", "GCSStore")

	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg)
	if err != nil {
		return nil, err
	}
	client, err := newGCSClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	storeLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"bucket", cfg.GCSBucket,
	)

	return &gcsStore{
		log:           storeLog,
		client:        client,
		mode:          cfg.Mode,
		emulatorHost:  strings.TrimRight(cfg.EmulatorHost, "/"),
		bucket:        cfg.GCSBucket,
		cdnDomain:     cfg.GCSCDNDomain,
		publicBaseURL: publicBaseURL,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func newGCSClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case ModeGCS:
		opts := clientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func resolvePublicBaseURL(cfg Config) (baseURL string, source string, err error) {
	if raw := strings.TrimSpace(cfg.PublicBaseURL); raw != "" {
		if !isAbsoluteURL(raw) {
			return "", "", &ConfigError{Code: ConfigErrorInvalidPublicURL, Mode: string(cfg.Mode), Value: raw}
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (s *gcsStore) Upload(ctx context.Context, key string, r io.Reader) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = ContentTypeForKey(key)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (s *gcsStore) Delete(ctx context.Context, key string) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

// Open keeps the timeout context alive until the reader is closed.
func (s *gcsStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidKey(key); err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if s.mode == ModeGCSEmulator && s.emulatorHost != "" {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, emulatorMediaURL(s.emulatorHost, s.bucket, key), nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed creating emulator download request: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed emulator download request: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			cancel()
			return nil, ErrObjectNotFound
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (s *gcsStore) PublicURL(key string) string {
	return gcsPublicURL(s.mode, s.bucket, s.cdnDomain, s.publicBaseURL, s.emulatorHost, key)
}

func gcsPublicURL(mode Mode, bucket, cdnDomain, publicBaseURL, emulatorHost, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cdnDomain, key)
	}
	if mode == ModeGCSEmulator {
		base := publicBaseURL
		if base == "" {
			base = emulatorHost
		}
		if base != "" {
			return emulatorMediaURL(base, bucket, key)
		}
	}
	if publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", publicBaseURL, bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

func emulatorMediaURL(base, bucket, key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		strings.TrimRight(strings.TrimSpace(base), "/"),
		url.PathEscape(bucket),
		url.PathEscape(key),
	)
}

type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}
