package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/food_market/internal/authclient"
	"github.com/Skotchmaster/food_market/internal/config"
	"github.com/Skotchmaster/food_market/internal/db"
	"github.com/Skotchmaster/food_market/internal/httpserver"
	"github.com/Skotchmaster/food_market/internal/logging"
	authmw "github.com/Skotchmaster/food_market/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/food_market/internal/middleware/logging"
	"github.com/Skotchmaster/food_market/internal/mykafka"
	"github.com/Skotchmaster/food_market/internal/repo"
	"github.com/Skotchmaster/food_market/internal/service"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	config.MustNonEmptyList(cfg.KafkaBrokers, "KAFKA_BROKERS")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	prod := mykafka.NewProducer(cfg.KafkaBrokers)
	events := service.EventSink{Pub: prod, Topic: cfg.KafkaTopic, Producer: cfg.ServiceName}

	Repo := &repo.GormRepo{DB: gdb}
	var carts service.CartOpener
	switch cfg.CartStore {
	case "redis":
		carts = service.RedisCarts(rdb, cfg.CartTTL)
	case "file":
		carts = service.FileCarts(cfg.CartDir)
		logger.Info("carts stored on disk", "dir", cfg.CartDir)
	default:
		log.Fatalf("unknown CART_STORE %q (want redis or file)", cfg.CartStore)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpserver.NewRequestValidator()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: Repo, Carts: carts}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: Repo, Carts: carts, Idem: rdb, IdemTTL: cfg.IdempotencyTTL, Events: events}},
		PaymentHandler: &httpserver.PaymentHTTP{Svc: &service.PaymentService{Repo: Repo, Events: events}},
		ProfileHandler: &httpserver.ProfileHTTP{Svc: &service.ProfileService{Repo: Repo}},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: Repo}},
		Auth:           authmw.NewAutoRefreshMiddleware(cfg.JWTAccessSecret, authclient.NewClient(cfg.AuthHTTPURL), Repo),
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
