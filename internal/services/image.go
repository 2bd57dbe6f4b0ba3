package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
)

// ImageUpload is a contact picture received from a client.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type ImageService interface {
	// Store validates and persists the upload, returning its object key.
	Store(ctx context.Context, ownerID uuid.UUID, nombre string, up *ImageUpload) (string, error)
	// Release removes a stored image; failures are logged, never returned.
	Release(ctx context.Context, key string)
	URL(key *string) *string
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type imageService struct {
	log      *logger.Logger
	store    storage.ObjectStore
	maxBytes int64
}

var allowedImageExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
}

func NewImageService(log *logger.Logger, store storage.ObjectStore, maxBytes int64) ImageService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &imageService{
		log:      log.With("service", "ImageService"),
		store:    store,
		maxBytes: maxBytes,
	}
}

func (s *imageService) Store(ctx context.Context, ownerID uuid.UUID, nombre string, up *ImageUpload) (string, error) {
	if up == nil || up.Body == nil {
		return "", fmt.Errorf("image upload required")
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(up.Filename)))
	if _, ok := allowedImageExt[ext]; !ok {
		return "", apierr.Field("imagen", "Formato de imagen no permitido (jpg, jpeg, png, gif, bmp, webp)")
	}
	if up.Size > s.maxBytes {
		return "", apierr.Field("imagen", s.tooLargeMessage())
	}

	raw, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image upload: %w", err)
	}
	if int64(len(raw)) > s.maxBytes {
		return "", apierr.Field("imagen", s.tooLargeMessage())
	}
	if len(raw) == 0 {
		return "", apierr.Field("imagen", "La imagen está vacía")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return "", apierr.Field("imagen", "El archivo no es una imagen válida")
	}

	key, err := imageKey(ownerID, nombre, ext)
	if err != nil {
		return "", err
	}
	if err := s.store.Upload(ctx, key, bytes.NewReader(raw)); err != nil {
		return "", apierr.Storage(fmt.Errorf("upload contact image: %w", err))
	}
	s.log.Debug("Contact image stored", "key", key, "bytes", len(raw))
	return key, nil
}

func (s *imageService) tooLargeMessage() string {
	return fmt.Sprintf("La imagen supera el tamaño máximo de %d MB", s.maxBytes>>20)
}

func (s *imageService) Release(ctx context.Context, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("failed to delete contact image (ignored)", "key", key, "error", err)
	}
}

func (s *imageService) URL(key *string) *string {
	if key == nil || strings.TrimSpace(*key) == "" {
		return nil
	}
	u := s.store.PublicURL(*key)
	return &u
}

func (s *imageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.store.Open(ctx, key)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// imageKey builds {owner}_{nombre}_{16 hex}{ext}.
func imageKey(ownerID uuid.UUID, nombre, ext string) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("random image suffix: %w", err)
	}
	slug := strings.Trim(unsafeKeyChars.ReplaceAllString(strings.TrimSpace(nombre), "_"), "_")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "contacto"
	}
	return fmt.Sprintf("%s_%s_%s%s", ownerID, slug, hex.EncodeToString(b[:]), ext), nil
}
