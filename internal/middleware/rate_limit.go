package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

type RateLimit struct {
	Requests int           // Number of requests
	Window   time.Duration // Time window
}

func NewRateLimiter(redisClient *redis.Client, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger,
	}
}

// rateLimitKey buckets authenticated callers by user and everyone else by IP.
func rateLimitKey(c *gin.Context) string {
	if userID := GetUserID(c); userID != 0 {
		return fmt.Sprintf("rate_limit:user:%d", userID)
	}
	return fmt.Sprintf("rate_limit:%s", c.ClientIP())
}

func (rl *RateLimiter) Limit(limit RateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rateLimitKey(c)

		val, err := rl.redisClient.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			// If Redis is down, allow the request
			rl.logger.Warn("Rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		count := 0
		if err == nil {
			count, _ = strconv.Atoi(val)
		}

		if count >= limit.Requests {
			ttl, _ := rl.redisClient.TTL(ctx, key).Result()

			c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			abort(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
			return
		}

		pipe := rl.redisClient.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, limit.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.logger.Warn("Rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		remaining := limit.Requests - count - 1
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(limit.Window).Unix(), 10))

		c.Next()
	}
}

func (rl *RateLimiter) AuthLimit() gin.HandlerFunc {
	return rl.Limit(RateLimit{
		Requests: 5,
		Window:   time.Minute,
	})
}

func (rl *RateLimiter) APILimit() gin.HandlerFunc {
	return rl.Limit(RateLimit{
		Requests: 100,
		Window:   time.Minute,
	})
}
