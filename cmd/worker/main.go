// Package main runs the notification worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/realtyflow/crm/config"
	"github.com/realtyflow/crm/internal/worker"
	"github.com/realtyflow/crm/pkg/notify"
	"github.com/realtyflow/crm/pkg/queue"
	"github.com/realtyflow/crm/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	sender := notify.NewSender(notify.Config{
		FromAddress:  cfg.Email.FromAddress,
		FromName:     cfg.Email.FromName,
		SendGridKey:  cfg.Email.APIKey,
		TwilioSID:    cfg.WhatsApp.TwilioSID,
		TwilioToken:  cfg.WhatsApp.TwilioToken,
		TwilioNumber: cfg.WhatsApp.TwilioNumber,
	}, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	w := worker.New(jobQueue, sender, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	if err := w.Run(ctx); err != nil {
		logger.Fatal("worker", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
