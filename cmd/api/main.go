// @title        Acquisitions API
// @version      1.0
// @description  Authentication backend for the acquisitions marketplace.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prospermbuma/acquisitions/internal/api"
	"github.com/prospermbuma/acquisitions/internal/api/handler"
	"github.com/prospermbuma/acquisitions/internal/api/middleware"
	redisstore "github.com/prospermbuma/acquisitions/internal/infrastructure/db/redis"
	"github.com/prospermbuma/acquisitions/internal/infrastructure/queue"
	"github.com/prospermbuma/acquisitions/internal/pkg/config"
	"github.com/prospermbuma/acquisitions/internal/security"
	"github.com/prospermbuma/acquisitions/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	started := time.Now()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "acquisitions",
	})

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrInsecureSecret) {
			log.Fatal().Err(err).Msg("refusing to start in production with the default JWT secret")
		}
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("using the default JWT secret; set JWT_SECRET before deploying")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open user store")
	}
	log.Info().Str("driver", st.driver).Msg("user store ready")

	checks := map[string]handler.Checker{"store": st.users}

	var limiter middleware.Limiter
	var closeRedis func() error
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		limiter = redisstore.NewRateLimiter(rdb, "signin", cfg.Auth.SignInLimit, cfg.Auth.SignInWindow)
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		closeRedis = rdb.Close
	} else {
		log.Info().Msg("REDIS_ADDR not set, sign-in throttling disabled")
	}

	audit := queue.NewDispatcher(cfg.Audit.Workers, st.events, logger.Component("audit"))
	audit.Start(ctx)

	e := api.NewRouter(api.Deps{
		Config:  cfg,
		Log:     log,
		Users:   st.users,
		Hasher:  security.NewBcryptHasher(security.DefaultCost),
		Audit:   audit,
		Limiter: limiter,
		Checks:  checks,
		Started: started,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(log, e, audit, st, closeRedis)
}

func waitForShutdown(log zerolog.Logger, e *echo.Echo, audit *queue.Dispatcher, st *store, closeRedis func() error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		if err := e.Close(); err != nil {
			log.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	// In-flight requests are done; flush the audit trail before the store goes away.
	audit.Close()

	if err := st.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store close error")
	}
	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}

	log.Info().Msg("server exited cleanly")
}
