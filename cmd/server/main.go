package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	docs "github.com/tazhibayda/rental-service/docs"
	"github.com/tazhibayda/rental-service/internal/config"
	api "github.com/tazhibayda/rental-service/internal/http"
	"github.com/tazhibayda/rental-service/internal/log"
	"github.com/tazhibayda/rental-service/internal/metrics"
	"github.com/tazhibayda/rental-service/internal/queue"
	"github.com/tazhibayda/rental-service/internal/repo"
	"github.com/tazhibayda/rental-service/internal/security"
	"github.com/tazhibayda/rental-service/internal/service"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// @title Rental Marketplace Auth API
// @version 0.1.0
// @description Registration, login and session refresh for the rental marketplace.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.IsProduction())
	if err != nil {
		stdlog.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		if err := cfg.Validate(); err != nil {
			logger.Fatal("config", zap.Error(err))
		}
	}

	if cfg.DDEnabled {
		tracer.Start(tracer.WithService(cfg.DDService), tracer.WithEnv(cfg.Env))
		defer tracer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())
	store.TxTimeout = cfg.TxTimeout

	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongo indexes", zap.Error(err))
	}

	var pub queue.Publisher = queue.NewNoop()
	if cfg.RabbitURL != "" {
		pub, err = queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Fatal("rabbit publisher", zap.Error(err))
		}
	}
	defer pub.Close()

	var limiter api.Limiter = api.NewMemoryLimiter(cfg.RegisterLimitPerHour, time.Hour)
	if cfg.RedisAddr != "" {
		rds := repo.NewRedis(cfg.RedisAddr)
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		limiter = api.NewRedisLimiter(rds, "rl:register", cfg.RegisterLimitPerHour, time.Hour)
	}

	metrics.MustRegister()
	docs.SwaggerInfo.BasePath = "/"

	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	tokens := security.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret)
	cookie := security.CookiePolicy{Secure: cfg.CookieSecure}

	h := api.NewHandler(
		service.NewRegistrar(store, hasher, pub, logger).WithVerifyTTL(cfg.VerifyTTL),
		service.NewSessions(store, hasher, tokens, cookie, pub, logger),
		service.NewAccounts(store, pub, logger),
		store,
		logger,
	)
	opts := api.RouterOptions{RegisterLimiter: limiter}
	if cfg.DDEnabled {
		opts.TraceService = cfg.DDService
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	logger.Info("rental-service listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
