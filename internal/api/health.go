package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Pinger is anything whose connectivity the health check reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /v1/health. rdb may be nil when rate limiting is off.
func Health(store Pinger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{"status": "ok", "store": "connected"}
		status := http.StatusOK

		if err := store.Ping(ctx); err != nil {
			body["store"] = "error"
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			body["redis"] = "connected"
			if err := rdb.Ping(ctx).Err(); err != nil {
				body["redis"] = "error"
				status = http.StatusServiceUnavailable
			}
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}

		c.JSON(status, body)
	}
}
