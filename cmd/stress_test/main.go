package main

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/adapter/storage"
	"github.com/Imanilom/baraja-coffe-sub000/internal/config"
	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/core/service"
)

const (
	productID     = "stress-espresso-beans"
	warehouseID   = "stress-main"
	initialStock  = 200
	totalRequests = 500
)

// Hammers one stock counter with concurrent single-unit reservations and
// verifies no update was lost: successes must equal the initial stock and
// the counter must end at zero.
func main() {
	cfg := config.FromEnv()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: cfg.RedisPoolSize})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	// Seed the counter
	_, err = db.ExecContext(ctx, `
		INSERT INTO stock_counters (product_id, warehouse_id, quantity, version, updated_at)
		VALUES (?, ?, ?, 0, NOW())
		ON DUPLICATE KEY UPDATE quantity = ?, version = 0`,
		productID, warehouseID, initialStock, initialStock)
	if err != nil {
		logger.Fatal("failed to seed counter", zap.Error(err))
	}

	ledger := service.NewStockLedger(storage.NewMySQLAdapter(db), storage.NewRedisAdapter(rdb), logger)

	var reserved, soldOut, conflicts atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := domain.StockRequest{
				ProductID:   productID,
				WarehouseID: warehouseID,
				Delta:       -1,
				Reason:      "stress",
			}
			for {
				_, err := ledger.Reserve(ctx, req, "stress-driver", "stress-run")
				switch {
				case err == nil:
					reserved.Add(1)
					return
				case errors.Is(err, domain.ErrInsufficientStock):
					soldOut.Add(1)
					return
				case errors.Is(err, domain.ErrConflict):
					conflicts.Add(1)
					// retry the whole request, as a real caller would
				default:
					logger.Error("reservation failed", zap.Error(err))
					return
				}
			}
		}()
	}
	wg.Wait()

	var quantity, version int
	db.QueryRowContext(ctx, `
		SELECT quantity, version FROM stock_counters
		WHERE product_id = ? AND warehouse_id = ?`,
		productID, warehouseID).Scan(&quantity, &version)

	logger.Info("stress run complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int32("reserved", reserved.Load()),
		zap.Int32("sold_out", soldOut.Load()),
		zap.Int32("conflict_retries", conflicts.Load()),
		zap.Int("final_quantity", quantity),
		zap.Int("final_version", version))

	if reserved.Load() != initialStock || quantity != 0 {
		logger.Fatal("lost update detected",
			zap.Int32("reserved", reserved.Load()),
			zap.Int("final_quantity", quantity))
	}
}
