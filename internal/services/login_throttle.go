package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

// LoginThrottle counts failed logins per email in a fixed window.
type LoginThrottle interface {
	Blocked(ctx context.Context, email string) bool
	Fail(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

type NoopLoginThrottle struct{}

func (NoopLoginThrottle) Blocked(context.Context, string) bool { return false }
func (NoopLoginThrottle) Fail(context.Context, string)         {}
func (NoopLoginThrottle) Reset(context.Context, string)        {}

type redisLoginThrottle struct {
	rdb         *goredis.Client
	log         *logger.Logger
	maxAttempts int64
	window      time.Duration
}

// NewRedisLoginThrottle fails open: redis errors are logged and never block a login.
func NewRedisLoginThrottle(rdb *goredis.Client, log *logger.Logger, maxAttempts int, window time.Duration) LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &redisLoginThrottle{
		rdb:         rdb,
		log:         log.With("service", "LoginThrottle"),
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func throttleKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "login_fail:" + hex.EncodeToString(sum[:])[:32]
}

func (t *redisLoginThrottle) Blocked(ctx context.Context, email string) bool {
	n, err := t.rdb.Get(ctx, throttleKey(email)).Int64()
	if err == goredis.Nil {
		return false
	}
	if err != nil {
		t.log.Warn("login throttle read failed (allowing)", "error", err)
		return false
	}
	return n >= t.maxAttempts
}

func (t *redisLoginThrottle) Fail(ctx context.Context, email string) {
	key := throttleKey(email)
	n, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		t.log.Warn("login throttle incr failed", "error", err)
		return
	}
	if n == 1 {
		if err := t.rdb.Expire(ctx, key, t.window).Err(); err != nil {
			t.log.Warn("login throttle expire failed", "error", err)
		}
	}
}

func (t *redisLoginThrottle) Reset(ctx context.Context, email string) {
	if err := t.rdb.Del(ctx, throttleKey(email)).Err(); err != nil {
		t.log.Warn("login throttle reset failed", "error", err)
	}
}
