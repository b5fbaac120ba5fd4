package tests

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/adapter/storage"
	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/core/service"
	"github.com/Imanilom/baraja-coffe-sub000/internal/port"
)

type noopEvents struct{}

func (noopEvents) PublishOrderPriced(context.Context, domain.OrderPricedEvent) {}

var _ port.EventPublisher = noopEvents{}

func setupInfra(t *testing.T) (*sql.DB, *redis.Client) {
	t.Helper()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/baraja?parseTime=true"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return db, rdb
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO menu_items (id, outlet_id, name, category, base_price, available)
		  VALUES ('it-latte', 'it-outlet', 'Caffe Latte', 'coffee', 25000, 1)
		  ON DUPLICATE KEY UPDATE base_price = 25000`, nil},
		{`DELETE FROM recipes WHERE menu_item_id = 'it-latte'`, nil},
		{`INSERT INTO recipes (menu_item_id, product_id, warehouse_id, quantity)
		  VALUES ('it-latte', 'it-beans', 'it-main', 2)`, nil},
		{`INSERT INTO tax_charges (id, outlet_id, name, kind, disc_kind, value, scope, product_ids, active)
		  VALUES ('it-ppn', 'it-outlet', 'PPN', 'tax', 'percentage', 10, 'all_items', NULL, 1)
		  ON DUPLICATE KEY UPDATE value = 10, active = 1`, nil},
		{`INSERT INTO stock_counters (product_id, warehouse_id, quantity, version, updated_at)
		  VALUES ('it-beans', 'it-main', 100, 0, NOW())
		  ON DUPLICATE KEY UPDATE quantity = 100, version = 0`, nil},
		{`DELETE FROM stock_movements WHERE reference_id LIKE 'it-order-%'`, nil},
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s.query, s.args...); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func newPricing(db *sql.DB, rdb *redis.Client) *service.PricingService {
	logger := zap.NewNop()
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	resolver := service.NewPriceResolver(mysqlAdapter, logger)
	discounts := service.NewDiscountEngine(mysqlAdapter, logger)
	taxes := service.NewTaxEngine(mysqlAdapter, []string{"bazar"})
	loyalty := service.NewLoyaltyLedger(mysqlAdapter, redisAdapter, logger)
	stock := service.NewStockLedger(mysqlAdapter, redisAdapter, logger)

	return service.NewPricingService(resolver, discounts, taxes, loyalty, stock, mysqlAdapter, noopEvents{}, logger)
}

func TestPricingPipeline_EndToEnd(t *testing.T) {
	db, rdb := setupInfra(t)
	defer db.Close()
	defer rdb.Close()

	seed(t, db)
	pricing := newPricing(db, rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := pricing.PriceOrder(ctx, domain.PriceOrderRequest{
		OrderID:  "it-order-1",
		OutletID: "it-outlet",
		Channel:  domain.ChannelCashier,
		Items:    []domain.ItemRequest{{MenuItemID: "it-latte", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PriceOrder failed: %v", err)
	}

	if order.SubtotalBeforeDiscount != 50000 {
		t.Errorf("expected subtotal 50000, got %d", order.SubtotalBeforeDiscount)
	}
	if order.TotalTax != 5000 {
		t.Errorf("expected tax 5000, got %d", order.TotalTax)
	}
	if order.GrandTotal != 55000 {
		t.Errorf("expected grand total 55000, got %d", order.GrandTotal)
	}

	// 2 lattes x 2 beans reserved.
	var quantity, version int
	db.QueryRowContext(ctx, `
		SELECT quantity, version FROM stock_counters
		WHERE product_id = 'it-beans' AND warehouse_id = 'it-main'`).Scan(&quantity, &version)
	if quantity != 96 {
		t.Errorf("expected beans 96, got %d", quantity)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}

	// Movement log entry written.
	var movements int
	db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM stock_movements WHERE reference_id = 'it-order-1'`).Scan(&movements)
	if movements != 1 {
		t.Errorf("expected 1 movement record, got %d", movements)
	}
}

func TestPricingPipeline_ConcurrentOrders(t *testing.T) {
	db, rdb := setupInfra(t)
	defer db.Close()
	defer rdb.Close()

	seed(t, db)
	pricing := newPricing(db, rdb)

	// 100 beans serve at most 25 two-latte orders (4 beans each); the rest
	// fail with insufficient stock or contention, and no update may be lost.
	totalOrders := 40
	var succeeded, rejected atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalOrders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			_, err := pricing.PriceOrder(ctx, domain.PriceOrderRequest{
				OutletID: "it-outlet",
				Channel:  domain.ChannelCashier,
				Items:    []domain.ItemRequest{{MenuItemID: "it-latte", Quantity: 2}},
			})
			if err == nil {
				succeeded.Add(1)
			} else {
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	var quantity int
	db.QueryRowContext(context.Background(), `
		SELECT quantity FROM stock_counters
		WHERE product_id = 'it-beans' AND warehouse_id = 'it-main'`).Scan(&quantity)

	reserved := int(succeeded.Load()) * 4
	if 100-reserved != quantity {
		t.Errorf("lost update: %d orders succeeded (%d beans) but counter shows %d left",
			succeeded.Load(), reserved, quantity)
	}
	if quantity < 0 {
		t.Errorf("counter went negative: %d", quantity)
	}
}
