package middleware

import (
	"net/http"
	"time"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter is a fixed-window per-IP limiter whose counters live in Redis,
// so every API replica shares the same budget.
type RateLimiter struct {
	rdb   *redis.Client
	limit int
	log   zerolog.Logger
	now   func() time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per IP per minute.
func NewRateLimiter(rdb *redis.Client, limit int, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:   rdb,
		limit: limit,
		log:   log.With().Str("component", "rate_limiter").Logger(),
		now:   time.Now,
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := config.CacheKey.LoginAttemptsKey(c.ClientIP(), rl.now())

		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, time.Minute)
		if _, err := pipe.Exec(ctx); err != nil {
			// Redis outage must not lock everyone out of login.
			rl.log.Warn().Err(err).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}

		if incr.Val() > int64(rl.limit) {
			c.Header("Retry-After", "60")
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
