package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/contactos-backend/internal/data/repos"
	"github.com/yungbote/contactos-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/contactos-backend/internal/http/handlers"
	httpMW "github.com/yungbote/contactos-backend/internal/http/middleware"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
	"github.com/yungbote/contactos-backend/internal/services"
)

const testMaxBodyBytes = 256 << 10

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	dir := t.TempDir()
	store, err := storage.NewLocalStore(log, dir, "/uploads")
	require.NoError(t, err)

	userRepo := repos.NewUserRepo(db, log)
	contactRepo := repos.NewContactRepo(db, log)
	ratingRepo := repos.NewRatingRepo(db, log)

	images := services.NewImageService(log, store, 1<<20)
	contacts := services.NewContactService(db, log, contactRepo, ratingRepo, images)
	ratings := services.NewRatingService(db, log, contactRepo, ratingRepo)
	auth := services.NewAuthService(db, log, userRepo, nil, services.AuthConfig{
		JWTSecretKey: "router-test",
		AccessTTL:    time.Minute,
		BcryptCost:   bcrypt.MinCost,
	})
	avatars, err := services.NewAvatarService(log, contactRepo, services.AvatarConfig{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Log:            log,
		MaxBodyBytes:   testMaxBodyBytes,
		UploadsDir:     dir,
		UploadsPath:    "/uploads",
		AuthHandler:    httpH.NewAuthHandler(log, auth),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		ContactHandler: httpH.NewContactHandler(log, contacts, avatars, services.NewExportService(log, contacts)),
		RatingHandler:  httpH.NewRatingHandler(log, ratings),
		EmailHandler:   httpH.NewEmailHandler(log, services.NewEmailService(log, nil)),
		HealthHandler:  httpH.NewHealthHandler(log, sqlDB),
	})
}

type client struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func (c *client) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.r.ServeHTTP(rec, req)
	return rec
}

func (c *client) json(method, path string, payload any) *httptest.ResponseRecorder {
	c.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(c.t, err)
	return c.do(method, path, bytes.NewBuffer(raw), "application/json")
}

func (c *client) form(method, path string, fields map[string]string, withImage bool) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(c.t, w.WriteField(k, v))
	}
	if withImage {
		part, err := w.CreateFormFile("imagen", "foto.png")
		require.NoError(c.t, err)
		require.NoError(c.t, png.Encode(part, image.NewGray(image.Rect(0, 0, 2, 2))))
	}
	require.NoError(c.t, w.Close())
	return c.do(method, path, &buf, w.FormDataContentType())
}

func signup(t *testing.T, r *gin.Engine, email, username string) *client {
	t.Helper()
	c := &client{t: t, r: r}
	rec := c.json(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": email, "username": username, "password": "secreto1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok services.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	c.token = tok.AccessToken
	return c
}

func TestContactsFlow(t *testing.T) {
	r := newTestEngine(t)
	ana := signup(t, r, "ana@example.com", "ana")
	beto := signup(t, r, "beto@example.com", "beto")

	rec := ana.form(http.MethodPost, "/api/contactos", map[string]string{
		"nombre":        "Proveedor Uno",
		"telefono":      "+573001112233",
		"tipo_contacto": "Proveedor",
		"detalle_tipo":  "Software",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contact map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contact))
	id := contact["id"].(string)
	assert.Nil(t, contact["average_rating"])
	imageURL := contact["imagen"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/"))

	served := ana.do(http.MethodGet, imageURL, nil, "")
	assert.Equal(t, http.StatusOK, served.Code)

	rec = ana.json(http.MethodPost, "/api/contactos/"+id+"/ratings", []map[string]any{
		{"categoria": "Confiabilidad", "calificacion": 4},
		{"categoria": "Comunicación", "calificacion": 5, "comentario": "rápido"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ana.do(http.MethodGet, "/api/contactos/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contact))
	assert.InDelta(t, 4.5, contact["average_rating"].(float64), 1e-9)

	// Another owner sees nothing.
	for _, m := range []string{http.MethodGet, http.MethodDelete} {
		rec = beto.do(m, "/api/contactos/"+id, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, m)
	}
	rec = beto.do(http.MethodGet, "/api/contactos/"+id+"/ratings", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ana.do(http.MethodGet, "/api/contactos?q=uno&limit=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
		Data  []map[string]any
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 10, page.Limit)

	rec = ana.do(http.MethodDelete, "/api/contactos/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ana.do(http.MethodGet, "/api/contactos/"+id+"/ratings", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationBody(t *testing.T) {
	r := newTestEngine(t)
	ana := signup(t, r, "val@example.com", "val")

	rec := ana.form(http.MethodPost, "/api/contactos", map[string]string{
		"nombre":   "A",
		"telefono": "123",
		"email":    "invalid-email",
	}, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Detail string `json:"detail"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Error de validación", body.Detail)
	assert.Len(t, body.Errors, 3)
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	r := newTestEngine(t)
	anon := &client{t: t, r: r}

	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/healthcheck", nil, "").Code)
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/readyz", nil, "").Code)
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/ping", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/contactos", nil, "").Code)

	u := signup(t, r, "tax@example.com", "tax")
	rec := u.do(http.MethodGet, "/api/contactos/taxonomy", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tax struct {
		Tipos []struct {
			TipoContacto string   `json:"tipo_contacto"`
			Detalles     []string `json:"detalles"`
		} `json:"tipos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tax))
	assert.Len(t, tax.Tipos, 7)

	rec = u.do(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"tax"`)

	rec = u.do(http.MethodGet, "/api/contactos/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = u.json(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "tax@example.com", "username": "otro", "password": "secreto1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = u.form(http.MethodPost, "/api/contactos/send-email", map[string]string{
		"subject": "Hola", "message": "m", "recipients": `["a@example.com"]`,
	}, false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = u.do(http.MethodGet, "/api/contactos/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
}

type validationBody struct {
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func TestRatingTypeMismatchIsFieldError(t *testing.T) {
	r := newTestEngine(t)
	ana := signup(t, r, "tipos@example.com", "tipos")

	rec := ana.form(http.MethodPost, "/api/contactos", map[string]string{"nombre": "Con Tipos", "telefono": "+573001112233"}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contact map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contact))
	path := "/api/contactos/" + contact["id"].(string) + "/ratings"

	cases := []struct {
		name    string
		payload any
		fields  []string
	}{
		{
			name: "string score",
			payload: []map[string]any{
				{"categoria": "General", "calificacion": 4},
				{"categoria": "General", "calificacion": "cinco"},
			},
			fields: []string{"ratings[1].calificacion"},
		},
		{
			name:    "fractional score",
			payload: []map[string]any{{"categoria": "General", "calificacion": 4.5}},
			fields:  []string{"ratings[0].calificacion"},
		},
		{
			name: "numeric category in two items",
			payload: []map[string]any{
				{"categoria": 7, "calificacion": 3},
				{"categoria": "General", "calificacion": 3},
				{"categoria": true, "calificacion": 3},
			},
			fields: []string{"ratings[0].categoria", "ratings[2].categoria"},
		},
		{
			name:    "item is not an object",
			payload: []any{"General"},
			fields:  []string{"ratings[0]"},
		},
		{
			name:    "body is not a list",
			payload: map[string]any{"categoria": "General", "calificacion": 4},
			fields:  []string{"ratings"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ana.json(http.MethodPost, path, tc.payload)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			var body validationBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			got := make([]string, 0, len(body.Errors))
			for _, e := range body.Errors {
				got = append(got, e.Field)
			}
			assert.Equal(t, tc.fields, got)
		})
	}

	// Nothing was stored by the rejected submissions.
	rec = ana.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Empty(t, stored)

	rec = ana.do(http.MethodPost, path, bytes.NewBufferString(`[{"calificacion": 4`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestBodyCap(t *testing.T) {
	r := newTestEngine(t)
	ana := signup(t, r, "grande@example.com", "grande")

	huge := strings.Repeat("a", testMaxBodyBytes)
	rec := ana.json(http.MethodPost, "/api/contactos", map[string]string{"nombre": huge, "telefono": "+573001112233"})
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"code":"payload_too_large"`)

	rec = ana.json(http.MethodPost, "/api/auth/login", map[string]string{"email": huge, "password": "x"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// The same endpoint still accepts a body under the cap.
	rec = ana.json(http.MethodPost, "/api/contactos", map[string]string{"nombre": "Pequeño", "telefono": "+573001112233"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
