package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/data/repos"
	"github.com/yungbote/contactos-backend/internal/data/repos/testutil"
	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/ctxutil"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
)

type harness struct {
	db        *gorm.DB
	uploadDir string
	contacts  ContactService
	ratings   RatingService
	images    ImageService
	contactRp repos.ContactRepo
	ratingRp  repos.RatingRepo
	userRp    repos.UserRepo
}

func newHarness(t *testing.T, opts ...RatingServiceOption) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	dir := t.TempDir()
	store, err := storage.NewLocalStore(log, dir, "/uploads")
	require.NoError(t, err)

	h := &harness{
		db:        db,
		uploadDir: dir,
		contactRp: repos.NewContactRepo(db, log),
		ratingRp:  repos.NewRatingRepo(db, log),
		userRp:    repos.NewUserRepo(db, log),
	}
	h.images = NewImageService(log, store, 1<<20)
	h.contacts = NewContactService(db, log, h.contactRp, h.ratingRp, h.images)
	h.ratings = NewRatingService(db, log, h.contactRp, h.ratingRp, opts...)
	return h
}

// owner seeds a user and returns a request context authenticated as them.
func (h *harness) owner(t *testing.T) (context.Context, *types.User) {
	t.Helper()
	u := testutil.SeedUser(t, context.Background(), h.db, uuid.NewString()[:8]+"@example.com")
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
	})
	return ctx, u
}

func (h *harness) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.uploadDir)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func pngUpload(t *testing.T, name string) *ImageUpload {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &ImageUpload{Filename: name, Size: int64(buf.Len()), Body: &buf}
}

func str(s string) *string { return &s }

func validFields(nombre string) ContactFields {
	return ContactFields{
		Nombre:   str(nombre),
		Telefono: str("+573001112233"),
	}
}

func requireAPIError(t *testing.T, err error, status int) *apierr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected *apierr.Error, got %T: %v", err, err)
	require.Equal(t, status, ae.Status, ae.Error())
	return ae
}

func fieldNames(ae *apierr.Error) []string {
	out := make([]string, 0, len(ae.Fields))
	for _, f := range ae.Fields {
		out = append(out, f.Field)
	}
	return out
}
