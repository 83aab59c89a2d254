package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// idempotencyKeyPrefix is the Redis key prefix.
	idempotencyKeyPrefix = "idempotency:"
	// defaultIdempotencyTTL is the default TTL for idempotency keys.
	defaultIdempotencyTTL = 24 * time.Hour
)

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	// TTL is the time to live for idempotency keys.
	TTL time.Duration
}

// idempotencyResponse stores the cached response.
type idempotencyResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
}

// idempotencyResponseWriter wraps gin.ResponseWriter to capture the response.
type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns a middleware that replays the stored response when a
// request carries an Idempotency-Key already seen. An edit is billed against
// an external API, so a client retry must not trigger a second invocation.
// Requests without the header pass through untouched.
func Idempotency(redis goredis.UniversalClient, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = defaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		if redis == nil || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idemKey := c.GetHeader(IdempotencyKeyHeader)
		if idemKey == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := idempotencyKeyPrefix + GetUserID(c).String() + ":" + idemKey

		// Replay a cached response if present.
		if data, err := redis.Get(ctx, key).Bytes(); err == nil {
			var cached idempotencyResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				c.Header("X-Idempotent-Replay", "true")
				c.Data(cached.StatusCode, "application/json", cached.Body)
				c.Abort()
				return
			}
		}

		writer := &idempotencyResponseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		// Only successful responses are worth replaying; failed requests
		// are safe to retry since the pipeline left no side effects.
		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			cached := idempotencyResponse{
				StatusCode: status,
				Body:       writer.body.Bytes(),
			}
			if data, err := json.Marshal(cached); err == nil {
				redis.Set(ctx, key, data, cfg.TTL)
			}
		}
	}
}
