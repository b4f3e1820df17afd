package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stakehouse/internal/logger"
)

// Limiter caps bet placements per user per minute with a redis fixed
// window (INCR + EXPIRE keyed on user and minute). Redis being down fails
// open: a throttle outage should not block wagering.
type Limiter struct {
	rdb    *redis.Client
	perMin int
}

func New(addr string, perMin int) *Limiter {
	return &Limiter{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		perMin: perMin,
	}
}

// Allow reports whether the user may take another action this minute.
func (l *Limiter) Allow(ctx context.Context, uid int64) bool {
	key := "rl:bets:" + strconv.FormatInt(uid, 10) + ":" +
		strconv.FormatInt(time.Now().Unix()/60, 10)

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.Log.Warn("rate limiter unavailable", zap.Error(err))
		return true
	}
	if n == 1 {
		l.rdb.Expire(ctx, key, time.Minute)
	}

	if n > int64(l.perMin) {
		logger.Log.Warn("rate limit exceeded", zap.Int64("uid", uid), zap.Int64("count", n))
		return false
	}
	return true
}

// Middleware guards the wagering routes.
func (l *Limiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := c.Locals("uid").(int64)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		if !l.Allow(c.Context(), uid) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "slow down"})
		}
		return c.Next()
	}
}
