package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/platform/sendgrid"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
)

type Clients struct {
	Redis    *goredis.Client
	SendGrid sendgrid.Client
	Images   storage.ObjectStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis backs the login throttle only; without it logins are not rate limited.
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
	} else {
		log.Warn("REDIS_ADDR not set; login throttling disabled")
	}

	// SendGrid is optional; the email endpoint answers 503 without it.
	var mail sendgrid.Client
	if cfg.SendGrid.APIKey != "" {
		c, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			if rdb != nil {
				_ = rdb.Close()
			}
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
		mail = c
	} else {
		log.Warn("SENDGRID_API_KEY not set; email sending disabled")
	}

	images, err := resolveObjectStore(ctx, log, cfg.Storage)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return Clients{}, err
	}

	return Clients{Redis: rdb, SendGrid: mail, Images: images}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
