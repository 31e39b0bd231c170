package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"user-registration-api/internal/core/ratelimit"
	resp "user-registration-api/internal/transport/http/response"
)

// RateLimit 全局令牌桶
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		tooMany(c)
	}
}

// RateLimitPerIP 按客户端 IP 限流，lim 可以是内存或 Redis 实现
func RateLimitPerIP(lim ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim.Allow(c.Request.Context(), "ip:"+c.ClientIP()) {
			c.Next()
			return
		}
		tooMany(c)
	}
}

func tooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, resp.Error(http.StatusTooManyRequests, ""))
}
