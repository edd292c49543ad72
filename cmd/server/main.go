package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/config"
	"github.com/shopsathi/shopsathi-api/internal/database"
	"github.com/shopsathi/shopsathi-api/internal/handler"
	"github.com/shopsathi/shopsathi-api/internal/metrics"
	"github.com/shopsathi/shopsathi-api/internal/queue"
	"github.com/shopsathi/shopsathi-api/internal/repository"
	"github.com/shopsathi/shopsathi-api/internal/router"
	"github.com/shopsathi/shopsathi-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.Load()

	logger, err := config.NewLogger(config.LoggerConfig{Level: cfg.LogLevel, Env: cfg.Env})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbOpts := database.Options{
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		MaxOpen: cfg.DBMaxOpen,
	}
	db, err := database.Open(dbOpts)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.DBMigrate {
		version, err := database.Migrate(dbOpts.DSN())
		if err != nil {
			logger.Fatal("migrate database", zap.Error(err))
		}
		logger.Info("schema up to date", zap.Uint("version", version))
	}

	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting, caching and logout revocation are off", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	m := metrics.New()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(rdb)
	products := repository.NewProductRepo(db)
	customers := repository.NewCustomerRepo(db)
	orders := repository.NewOrderRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	reports := repository.NewReportRepo(db)

	svcOpts := []service.OrderServiceOption{
		service.WithStrictStock(cfg.StrictStock),
		service.WithMetrics(m),
	}
	if cfg.QueueEnabled {
		svcOpts = append(svcOpts, service.WithEvents(service.NewPublisher(cfg.RabbitURL, logger)))
		consumer := queue.NewSalesConsumer(cfg.RabbitURL, cfg.SalesLogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("sales consumer stopped", zap.Error(err))
			}
		}()
	}
	orderSvc := service.NewOrderService(orders, products, logger, svcOpts...)

	hopts := handler.Options{Timeout: cfg.RequestTimeout, RedactErrors: cfg.RedactErrors, Logger: logger}
	e := router.New(router.Deps{
		Env:       cfg.Env,
		JWTSecret: cfg.JWTSecret,
		Revoked:   tokens,
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Metrics:   m,
		Logger:    logger,

		Auth:      handler.NewAuthHandler(cfg, users, tokens, hopts),
		Products:  handler.NewProductHandler(products, hopts),
		Customers: handler.NewCustomerHandler(customers, hopts),
		Orders:    handler.NewOrderHandler(orders, orderSvc, hopts),
		Purchases: handler.NewPurchaseHandler(purchases, hopts),
		Reports:   handler.NewReportHandler(reports, hopts),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.Bool("strict_stock", cfg.StrictStock))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
