package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/adapter/events"
	"github.com/Imanilom/baraja-coffe-sub000/internal/adapter/handler"
	"github.com/Imanilom/baraja-coffe-sub000/internal/adapter/storage"
	"github.com/Imanilom/baraja-coffe-sub000/internal/config"
	"github.com/Imanilom/baraja-coffe-sub000/internal/core/service"
)

func main() {
	cfg := config.FromEnv()

	logger := newLogger(cfg.LogJSON)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	publisher := events.NewPublisher(func(ctx context.Context, payload []byte) error {
		// Downstream bus hookup lives outside this core; deliveries are
		// logged so operators can trace emissions.
		logger.Debug("order priced event", zap.ByteString("payload", payload))
		return nil
	}, cfg.EventQueueSize, cfg.WorkerCount, logger)

	// Initialize core services
	resolver := service.NewPriceResolver(mysqlAdapter, logger)
	discounts := service.NewDiscountEngine(mysqlAdapter, logger)
	taxes := service.NewTaxEngine(mysqlAdapter, cfg.ExcludedCategories)
	loyalty := service.NewLoyaltyLedger(mysqlAdapter, redisAdapter, logger)
	stock := service.NewStockLedger(mysqlAdapter, redisAdapter, logger)
	stock.SetRetryPolicy(cfg.StockRetries, cfg.StockRetryWait, cfg.LockTTL)

	pricing := service.NewPricingService(resolver, discounts, taxes, loyalty, stock, mysqlAdapter, publisher, logger)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(pricing, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/api/orders/price", httpHandler.PriceOrder)

	httpServer := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	publisher.Close()
	logger.Info("event workers stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}

func newLogger(jsonOutput bool) *zap.Logger {
	if jsonOutput {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
