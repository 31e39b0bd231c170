package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"user-registration-api/internal/core/auth"
	"user-registration-api/internal/core/config"
	"user-registration-api/internal/core/database"
	"user-registration-api/internal/core/logger"
	"user-registration-api/internal/core/ratelimit"
	"user-registration-api/internal/core/server"
	"user-registration-api/internal/repo"
	"user-registration-api/internal/service"
	"user-registration-api/internal/transport/http/handler"
	"user-registration-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))

	log, cleanup := newLogger(cfg)
	defer cleanup()
	restore := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer restore()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	defer func() { _ = database.Close(db) }()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	users := repo.NewUserRepo(db)
	if cfg.DB.AutoMigrate {
		if err := users.Migrate(); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	validator, err := service.NewValidator(cfg.Validation.EmailRegex, cfg.Validation.PasswordRegex)
	if err != nil {
		log.Fatal("validation patterns", zap.Error(err))
	}
	jwter, err := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	if err != nil {
		log.Fatal("jwt", zap.Error(err))
	}
	svc := service.NewUserService(users, validator, jwter)

	perIP := mustPerIPLimiter(cfg, log)
	if perIP != nil {
		defer func() { _ = perIP.Close() }()
	}

	r := router.NewAPIEngine(router.Deps{
		Logger:    log,
		DB:        db,
		HTTP:      cfg.App.HTTP,
		RateLimit: cfg.RateLimit,
		PerIP:     perIP,
		Modules:   []router.APIModule{handler.NewUserHandler(svc, log)},
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("registro api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("registro", baseURL+"/registro"),
		zap.Duration("tokenTTL", jwter.TTL()),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("registro api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := server.Shutdown(srv, 10*time.Second); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("registro api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	f := cfg.Log.File
	if !f.Enable {
		return logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Filename:   f.Filename,
		MaxSizeMB:  f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAgeDays: f.MaxAgeDays,
		Compress:   f.Compress,
	})
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))
	}
	return db
}

// mustPerIPLimiter 按配置选内存或 Redis；perIP<=0 或关闭限流时返回 nil
func mustPerIPLimiter(cfg *config.Config, l *zap.Logger) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enable || rl.PerIP <= 0 {
		return nil
	}
	window := time.Duration(rl.WindowSec) * time.Second
	if rl.Backend != "redis" {
		return ratelimit.NewMemory(rl.PerIP, window)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rdb, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		l.Fatal("redis connect", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
	}
	l.Info("redis rate limiter", zap.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedis(rdb, l, rl.PerIP, window)
}
