package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	extratelimit "github.com/vnmchuo/ratelimiter"
)

// Limiter is a thin wrapper around github.com/vnmchuo/ratelimiter that
// bounds generations per user key per minute. Keys are hashed before they
// reach Redis; user keys are upstream billing credentials.
type Limiter struct {
	store extratelimit.Limiter
}

func NewLimiter(rdb *redis.Client, defaultRPM int64) *Limiter {
	store := extratelimit.NewRedisStore(rdb,
		extratelimit.WithLimit(int(defaultRPM)),
		extratelimit.WithWindow(time.Minute),
	)
	return &Limiter{store: store}
}

func NewTestLimiter(store extratelimit.Limiter) *Limiter {
	return &Limiter{store: store}
}

func (l *Limiter) Allow(ctx context.Context, userKey string) (bool, error) {
	res, err := l.store.Allow(ctx, redisKey(userKey))
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

func (l *Limiter) Status(ctx context.Context, userKey string) (*extratelimit.Result, error) {
	return l.store.Status(ctx, redisKey(userKey))
}

func redisKey(userKey string) string {
	h := sha256.Sum256([]byte(userKey))
	return fmt.Sprintf("ratelimit:user:%s", hex.EncodeToString(h[:8]))
}
