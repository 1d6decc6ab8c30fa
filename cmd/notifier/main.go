package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tazhibayda/rental-service/internal/config"
	"github.com/tazhibayda/rental-service/internal/log"
	"github.com/tazhibayda/rental-service/internal/mail"
	"github.com/tazhibayda/rental-service/internal/queue"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.IsProduction())
	if err != nil {
		stdlog.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, cfg.RabbitBindKey)
	if err != nil {
		logger.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	n := mail.NewNotifier(mail.NewSender(logger), cfg.PublicURL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("notifier up",
		zap.String("exchange", cfg.RabbitExchange),
		zap.String("queue", cfg.RabbitQueue),
		zap.String("key", cfg.RabbitBindKey),
		zap.Int("workers", cfg.RabbitConcurrency),
	)

	if err := cons.Consume(ctx, cfg.RabbitConcurrency, n.Handle); err != nil {
		logger.Fatal("consumer stopped", zap.Error(err))
	}
}
