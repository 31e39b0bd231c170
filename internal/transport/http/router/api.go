package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"user-registration-api/internal/core/config"
	"user-registration-api/internal/core/database"
	"user-registration-api/internal/core/ratelimit"
	"user-registration-api/internal/core/server"
	mdw "user-registration-api/internal/transport/http/middleware"
	resp "user-registration-api/internal/transport/http/response"
)

type Deps struct {
	Logger    *zap.Logger
	DB        *gorm.DB
	HTTP      config.HTTP
	RateLimit config.RateLimit
	PerIP     ratelimit.Limiter // 为空则不按 IP 限流
	Modules   []APIModule
}

func NewAPIEngine(d Deps) *gin.Engine {
	l := d.Logger
	if l == nil {
		l = zap.NewNop()
	}
	r := server.NewRouter(l)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)
	if d.RateLimit.Enable {
		if d.RateLimit.RPS > 0 {
			r.Use(mdw.RateLimit(rate.Limit(d.RateLimit.RPS), max(1, d.RateLimit.Burst)))
		}
		if d.PerIP != nil {
			r.Use(mdw.RateLimitPerIP(d.PerIP))
		}
	}
	r.Use(
		mdw.ConcurrencyLimit(d.HTTP.MaxConcurrent),
		mdw.MaxBodyBytes(d.HTTP.MaxBodyBytes),
		mdw.Timeout(time.Duration(d.HTTP.RequestTimeoutSec)*time.Second),
	)

	// 健康检查：带数据库探活
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, d.DB); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, resp.Error(http.StatusServiceUnavailable, ""))
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 注册接口挂在根路径：/registro
	MountAllAPI(r.Group(""), d.Modules...)

	return r
}
