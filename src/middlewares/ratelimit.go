package middlewares

import (
	"airattix/src/lib"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimit returns a fixed-window limiter keyed on client IP. The counter
// lives in redis so every replica shares the same window. When redis is
// unavailable the limiter fails open: dropping requests because a cache is
// down would hurt more than letting a burst through.
func RateLimit(scope string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rd := lib.GetRedisClient()
		if rd == nil {
			return
		}
		key := fmt.Sprintf("ratelimit:%s:%s", scope, ctx.ClientIP())
		count, err := rd.Incr(context.Background(), key).Result()
		if err != nil {
			log.Printf("[ratelimit] Error incrementing %s: %s\n", key, err.Error())
			return
		}
		if count == 1 {
			rd.Expire(context.Background(), key, window)
		}
		if count > limit {
			ttl, _ := rd.TTL(context.Background(), key).Result()
			ctx.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "Too many requests. Please try again later.",
			})
			return
		}
	}
}
