package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"inventorycore/internal/core/apperror"
	"inventorycore/internal/infrastructure/bulkhead"
	"inventorycore/internal/infrastructure/loadshed"
	"inventorycore/internal/infrastructure/ratelimit"
	"inventorycore/internal/metrics"
)

// RateLimit rejects requests per-identifier (client IP by default) once
// the token bucket is exhausted (C7).
func RateLimit(limiter *ratelimit.Limiter, sink *metrics.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := limiter.Allow(c.ClientIP()); err != nil {
			if sink != nil {
				sink.IncRateLimited()
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadShed runs ahead of bulkhead admission, fast-failing once the
// watched bulkheads' combined queue depth crosses the shed threshold (C9).
func LoadShed(shedder *loadshed.Shedder, sink *metrics.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := shedder.Admit(); err != nil {
			if sink != nil {
				sink.IncShed()
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Bulkhead bounds concurrent in-flight requests to b's limit+queue (C8).
// Because gin handlers run synchronously, admission itself executes the
// rest of the chain as the bulkhead's guarded function.
func Bulkhead(b *bulkhead.Bulkhead) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := b.Run(c.Request.Context(), func(ctx context.Context) error {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			if len(c.Errors) > 0 {
				return c.Errors.Last().Err
			}
			return nil
		})
		if err != nil && !c.Writer.Written() && len(c.Errors) == 0 {
			_ = c.Error(apperror.NewServiceOverloaded(0))
			c.Abort()
		}
	}
}
