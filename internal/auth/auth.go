package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vnmchuo/media-gateway/internal/spend"
)

// User is the authenticated identity attached to each request: the upstream
// billing key plus the spend/budget snapshot taken at auth time. The
// snapshot may be stale; the orchestrator refreshes it before charging.
type User struct {
	Key    string   `json:"-"`
	Alias  string   `json:"alias"`
	Spend  float64  `json:"spend"`
	Budget *float64 `json:"budget"`
	UserID string   `json:"user_id"`
}

// MarshalBinary implements encoding.BinaryMarshaler for Redis.
func (u *User) MarshalBinary() ([]byte, error) {
	return json.Marshal(u)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Redis.
func (u *User) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, u)
}

type Middleware func(next http.Handler) http.Handler

type contextKey string

const (
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

const cacheTTL = 5 * time.Minute

// NewMiddleware authenticates requests with a Bearer key validated against
// the billing service. Successful lookups are cached in Redis under a hash
// of the key so repeated generations don't hammer the upstream.
func NewMiddleware(billing spend.Service, cache *redis.Client) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			requestID := uuid.New().String()
			ctx = context.WithValue(ctx, requestIDKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized: missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			key := strings.TrimPrefix(authHeader, "Bearer ")
			redisKey := fmt.Sprintf("auth:%s", hashKey(key))

			var cached User
			err := cache.Get(ctx, redisKey).Scan(&cached)
			if err == nil {
				cached.Key = key
				next.ServeHTTP(w, r.WithContext(WithUser(ctx, &cached)))
				return
			} else if err != redis.Nil {
				log.Printf("auth: redis error: %v", err)
			}

			info, err := billing.GetKeyInfo(ctx, key)
			if err != nil {
				if errors.Is(err, spend.ErrInvalidKey) {
					http.Error(w, "Unauthorized: invalid key", http.StatusUnauthorized)
					return
				}
				log.Printf("auth: billing service lookup failed: %v", err)
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}

			user := &User{
				Key:    key,
				Alias:  info.Alias,
				Spend:  info.Spend,
				Budget: info.Budget,
				UserID: info.UserID,
			}
			_ = cache.Set(ctx, redisKey, user, cacheTTL).Err()

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

func hashKey(key string) string {
	h := sha256.New()
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// GetUser extracts the authenticated user from the context.
func GetUser(ctx context.Context) *User {
	if u, ok := ctx.Value(userKey).(*User); ok {
		return u
	}
	return nil
}

// GetRequestID extracts the request id from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUser attaches a user to the context. Exported for handler tests.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// WithRequestID attaches a request id to the context. Exported for tests.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
