package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/food_market/internal/config"
	"github.com/Skotchmaster/food_market/internal/db"
	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/mykafka"
	"github.com/Skotchmaster/food_market/internal/notify"
	"github.com/Skotchmaster/food_market/internal/repo"
)

const workers = 4

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyList(cfg.KafkaBrokers, "KAFKA_BROKERS")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName+"-notifier")

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	var sender notify.Sender = notify.LogSender{Log: logger}
	if cfg.SendGridAPIKey != "" {
		sender = notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.NotifyFrom)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, notifications are only logged")
	}

	h := &notify.Handler{
		Sender:   sender,
		Profiles: &repo.GormRepo{DB: gdb},
		Dedup:    rdb,
		DedupTTL: 48 * time.Hour,
		Log:      logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := mykafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, workers, logger)
	logger.Info("notifier started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	if err := consumer.Start(logging.IntoContext(ctx, logger), h.Handle); err != nil {
		logger.Error("consumer stopped", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("notifier stopped")
}
