package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/contactos-backend/internal/data/db"
	"github.com/yungbote/contactos-backend/internal/data/repos/testutil"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "ACCESS_TOKEN_TTL", "RATING_CATEGORY_VALIDATION", "CORS_ALLOWED_ORIGINS", "MAX_IMAGE_BYTES", "OBJECT_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "DB_MIGRATE", "LOGIN_MAX_ATTEMPTS"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig(testutil.Logger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Fatalf("HTTPAddr: want=%q got=%q", ":8000", cfg.HTTPAddr)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("AccessTokenTTL: want=%s got=%s", 30*time.Minute, cfg.AccessTokenTTL)
	}
	if !cfg.RatingCategoryValidation {
		t.Fatalf("RatingCategoryValidation should default to true")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:4200" {
		t.Fatalf("AllowedOrigins: got=%v", cfg.AllowedOrigins)
	}
	if cfg.MaxImageBytes != 5<<20 {
		t.Fatalf("MaxImageBytes: got=%d", cfg.MaxImageBytes)
	}
	if cfg.Storage.Mode != storage.ModeLocal {
		t.Fatalf("Storage.Mode: want=%q got=%q", storage.ModeLocal, cfg.Storage.Mode)
	}
	if cfg.DBMigrate != db.MigrateAuto || cfg.LoginMaxAttempts != 5 {
		t.Fatalf("unexpected defaults: migrate=%q attempts=%d", cfg.DBMigrate, cfg.LoginMaxAttempts)
	}
}

func TestLoadConfigAvatarOverrides(t *testing.T) {
	t.Setenv("AVATAR_COLORS_JSON_PATH", "/etc/contactos/colors.json")
	t.Setenv("AVATAR_FONT", "/etc/contactos/font.ttf")

	cfg, err := LoadConfig(testutil.Logger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Avatar.ColorsPath != "/etc/contactos/colors.json" || cfg.Avatar.FontPath != "/etc/contactos/font.ttf" {
		t.Fatalf("Avatar: got=%+v", cfg.Avatar)
	}

	// A configured font that does not exist fails startup instead of the first render.
	cfg.DB = db.Config{Driver: db.DriverSQLite, DSN: "file::memory:"}
	cfg.JWTSecretKey = "test-secret"
	cfg.Storage = storage.Config{Mode: storage.ModeLocal, LocalDir: t.TempDir(), LocalPublicPath: "/uploads"}
	cfg.RedisAddr = ""
	if _, err := NewWithConfig(context.Background(), testutil.Logger(t), cfg); err == nil {
		t.Fatalf("NewWithConfig: expected error for missing avatar font")
	}
}

func TestLoadConfigRejectsUnknownStorageMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "floppy")
	if _, err := LoadConfig(testutil.Logger(t)); err == nil {
		t.Fatalf("LoadConfig: expected error for unknown storage mode")
	}
}

func TestNewWithConfigServesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uploads := t.TempDir()
	cfg := Config{
		HTTPAddr:                 "127.0.0.1:0",
		ShutdownTimeout:          time.Second,
		DB:                       db.Config{Driver: db.DriverSQLite, DSN: "file::memory:"},
		DBMigrate:                db.MigrateAuto,
		JWTSecretKey:             "test-secret",
		AccessTokenTTL:           time.Minute,
		RatingCategoryValidation: true,
		AllowedOrigins:           []string{"http://localhost:4200"},
		MaxImageBytes:            1 << 20,
		Storage:                  storage.Config{Mode: storage.ModeLocal, LocalDir: uploads, LocalPublicPath: "/uploads"},
	}

	a, err := NewWithConfig(context.Background(), testutil.Logger(t), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(a.Close)

	for path, want := range map[string]int{
		"/healthcheck":      http.StatusOK,
		"/readyz":           http.StatusOK,
		"/api/ping":         http.StatusOK,
		"/api/contactos":    http.StatusUnauthorized,
		"/api/auth/me":      http.StatusUnauthorized,
		"/uploads/nope.png": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("GET %s: want=%d got=%d body=%s", path, want, rec.Code, rec.Body.String())
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := Config{
		HTTPAddr:        "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		DB:              db.Config{Driver: db.DriverSQLite, DSN: "file::memory:"},
		DBMigrate:       db.MigrateAuto,
		JWTSecretKey:    "test-secret",
		Storage:         storage.Config{Mode: storage.ModeLocal, LocalDir: t.TempDir(), LocalPublicPath: "/uploads"},
	}
	a, err := NewWithConfig(context.Background(), testutil.Logger(t), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(a.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
