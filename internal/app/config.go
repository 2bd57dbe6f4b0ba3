package app

import (
	"fmt"
	"time"

	"github.com/yungbote/contactos-backend/internal/data/db"
	"github.com/yungbote/contactos-backend/internal/observability"
	"github.com/yungbote/contactos-backend/internal/platform/envutil"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/platform/sendgrid"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
	"github.com/yungbote/contactos-backend/internal/services"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	DB              db.Config
	DBMigrate       string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RatingCategoryValidation bool
	AllowedOrigins           []string
	MaxImageBytes            int64

	RedisAddr          string
	RedisPassword      string
	LoginMaxAttempts   int
	LoginAttemptWindow time.Duration

	Avatar   services.AvatarConfig
	Storage  storage.Config
	SendGrid sendgrid.Config
	Otel     observability.OtelConfig
}

func LoadConfig(log *logger.Logger) (Config, error) {
	storageCfg, err := storage.ResolveConfigFromEnv()
	if err != nil {
		return Config{}, fmt.Errorf("object storage config: %w", err)
	}
	cfg := Config{
		HTTPAddr:        envutil.String("HTTP_ADDR", ":8000"),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		DB:              db.ConfigFromEnv(),
		DBMigrate:       envutil.String("DB_MIGRATE", db.MigrateAuto),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", 1800*time.Second),

		RatingCategoryValidation: envutil.Bool("RATING_CATEGORY_VALIDATION", true),
		AllowedOrigins:           envutil.CSV("CORS_ALLOWED_ORIGINS", []string{"http://localhost:4200"}),
		MaxImageBytes:            envutil.Int64("MAX_IMAGE_BYTES", 5<<20),

		RedisAddr:          envutil.String("REDIS_ADDR", ""),
		RedisPassword:      envutil.String("REDIS_PASSWORD", ""),
		LoginMaxAttempts:   envutil.Int("LOGIN_MAX_ATTEMPTS", 5),
		LoginAttemptWindow: envutil.Seconds("LOGIN_ATTEMPT_WINDOW", 900*time.Second),

		Avatar: services.AvatarConfig{
			ColorsPath: envutil.String("AVATAR_COLORS_JSON_PATH", ""),
			FontPath:   envutil.String("AVATAR_FONT", ""),
		},
		Storage:  storageCfg,
		SendGrid: sendgrid.ConfigFromEnv(),
		Otel:     observability.OtelConfigFromEnv(),
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	return cfg, nil
}
