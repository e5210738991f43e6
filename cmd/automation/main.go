// Package main runs the scheduled automation pass once and exits. Intended
// to be invoked by cron or a scheduler; running a single instance per tick
// keeps trial expiry and reminders from double-firing.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/realtyflow/crm/config"
	"github.com/realtyflow/crm/internal/automation"
	"github.com/realtyflow/crm/internal/leads"
	"github.com/realtyflow/crm/internal/properties"
	"github.com/realtyflow/crm/internal/tenants"
	"github.com/realtyflow/crm/pkg/database"
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	svc := automation.NewService(
		properties.NewRepository(pool),
		leads.NewRepository(pool),
		tenants.NewRepository(pool),
		queue.NewQueue(rdb.Client, logger),
		cfg.Automation,
		logger,
	)

	if err := svc.Run(ctx); err != nil {
		logger.Fatal("automation run", zap.Error(err))
	}
	logger.Info("automation run complete")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
