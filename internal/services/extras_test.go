package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yungbote/contactos-backend/internal/data/repos/testutil"
	"github.com/yungbote/contactos-backend/internal/platform/ctxutil"
	"github.com/yungbote/contactos-backend/internal/platform/sendgrid"
)

func TestComputeInitials(t *testing.T) {
	assert.Equal(t, "AG", computeInitials("ana gómez pérez"))
	assert.Equal(t, "É", computeInitials("  élan "))
	assert.Equal(t, "?", computeInitials("   "))
	assert.Equal(t, "3C", computeInitials("3m company"))
}

func TestContactAvatar(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.owner(t)
	otherCtx, _ := h.owner(t)
	c, err := h.contacts.Create(ctx, validFields("Luis Mora"), nil)
	require.NoError(t, err)

	avatars, err := NewAvatarService(testutil.Logger(t), h.contactRp, AvatarConfig{})
	require.NoError(t, err)

	raw, err := avatars.ContactAvatar(ctx, c.ID.String())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, avatarSize, img.Bounds().Dx())

	again, err := avatars.ContactAvatar(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, raw, again, "rendering is deterministic")

	_, err = avatars.ContactAvatar(otherCtx, c.ID.String())
	requireAPIError(t, err, http.StatusNotFound)
}

func TestAvatarConfigOverrides(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	colors := filepath.Join(dir, "colors.json")
	require.NoError(t, os.WriteFile(colors, []byte(`["#FF0000"]`), 0o644))

	avatars, err := NewAvatarService(testutil.Logger(t), h.contactRp, AvatarConfig{ColorsPath: colors})
	require.NoError(t, err)
	raw, err := avatars.Render("seed", "Ana Bravo")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	r, g, b, _ := img.At(20, avatarSize/2).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})

	_, err = NewAvatarService(testutil.Logger(t), h.contactRp, AvatarConfig{FontPath: filepath.Join(dir, "missing.ttf")})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(colors, []byte(`[]`), 0o644))
	_, err = NewAvatarService(testutil.Logger(t), h.contactRp, AvatarConfig{ColorsPath: colors})
	assert.Error(t, err)
}

func TestExportContactsXLSX(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.owner(t)
	for _, n := range []string{"Ana", "Bruno", "Carla"} {
		_, err := h.contacts.Create(ctx, validFields(n), nil)
		require.NoError(t, err)
	}
	c, err := h.contacts.All(ctx, ListContactsParams{Query: "Ana"})
	require.NoError(t, err)
	require.Len(t, c, 1)

	raw, err := NewExportService(testutil.Logger(t), h.contacts).ContactsXLSX(ctx, ListContactsParams{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{exportSheet}, f.GetSheetList())
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Nombre", rows[0][0])
	assert.Equal(t, "Ana", rows[1][0])
	assert.Equal(t, "+573001112233", rows[1][1])
}

func TestEmailServiceValidatesAndSends(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	client, err := sendgrid.New(testutil.Logger(t), sendgrid.Config{
		APIKey:           "SG.test",
		BaseURL:          srv.URL,
		DefaultFromEmail: "no-reply@example.com",
	})
	require.NoError(t, err)
	svc := NewEmailService(testutil.Logger(t), client)
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{Email: "owner@example.com", Username: "owner"})

	err = svc.Send(ctx, EmailInput{Subject: "", Message: "hola", Recipients: []string{"bad"}})
	ae := requireAPIError(t, err, http.StatusUnprocessableEntity)
	assert.ElementsMatch(t, []string{"subject", "recipients[0]"}, fieldNames(ae))

	err = svc.Send(ctx, EmailInput{
		Subject:     "Cotización",
		Message:     "Adjunto <la> propuesta",
		Recipients:  []string{"a@example.com", " b@example.com "},
		Attachments: []EmailAttachment{{Filename: "p.txt", ContentType: "text/plain", Data: []byte("hola")}},
	})
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "Cotización", payload["subject"])

	err = svc.Send(ctx, EmailInput{
		Subject:     "Grande",
		Message:     "x",
		Recipients:  []string{"a@example.com"},
		Attachments: []EmailAttachment{{Filename: "big.bin", Data: make([]byte, maxAttachmentBytes+1)}},
	})
	ae = requireAPIError(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, []string{"attachments"}, fieldNames(ae))
}

func TestEmailServiceWithoutClient(t *testing.T) {
	svc := NewEmailService(testutil.Logger(t), nil)
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{Email: "owner@example.com"})
	err := svc.Send(ctx, EmailInput{Subject: "s", Message: "m", Recipients: []string{"a@example.com"}})
	ae := requireAPIError(t, err, http.StatusServiceUnavailable)
	assert.Equal(t, "email_unavailable", ae.Code)
}
