package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
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

	return db
}

func seedCounter(t *testing.T, db *sql.DB, productID, warehouseID string, quantity, version int) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO stock_counters (product_id, warehouse_id, quantity, version, updated_at)
		VALUES (?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE quantity = ?, version = ?`,
		productID, warehouseID, quantity, version, quantity, version)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
}

func testMovement(productID, warehouseID string, delta int) domain.StockMutation {
	return domain.StockMutation{
		ID:          "test-move-" + time.Now().Format("20060102150405.000"),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Delta:       delta,
		Reason:      "test",
		Actor:       "test-suite",
		ReferenceID: "test-ref",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestApplyDelta_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	seedCounter(t, db, "test-beans", "test-wh", 100, 0)
	db.ExecContext(ctx, `DELETE FROM stock_movements WHERE reference_id = 'test-ref'`)

	ok, err := adapter.ApplyDelta(ctx, "test-beans", "test-wh", -5, 0, testMovement("test-beans", "test-wh", -5))
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if !ok {
		t.Fatal("expected conditional update to match")
	}

	counter, err := adapter.GetCounter(ctx, "test-beans", "test-wh")
	if err != nil {
		t.Fatalf("GetCounter failed: %v", err)
	}
	if counter.Quantity != 95 {
		t.Errorf("expected quantity 95, got %d", counter.Quantity)
	}
	if counter.Version != 1 {
		t.Errorf("expected version 1, got %d", counter.Version)
	}

	// Movement record appended.
	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements WHERE reference_id = 'test-ref'`).Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 movement record, got %d", count)
	}

	db.ExecContext(ctx, `DELETE FROM stock_movements WHERE reference_id = 'test-ref'`)
}

func TestApplyDelta_StaleVersion(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	seedCounter(t, db, "test-stale", "test-wh", 100, 5)

	ok, err := adapter.ApplyDelta(ctx, "test-stale", "test-wh", -1, 4, testMovement("test-stale", "test-wh", -1))
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if ok {
		t.Error("expected stale version to match zero rows")
	}

	counter, _ := adapter.GetCounter(ctx, "test-stale", "test-wh")
	if counter.Quantity != 100 || counter.Version != 5 {
		t.Errorf("expected counter unchanged (100, v5), got (%d, v%d)", counter.Quantity, counter.Version)
	}
}

func TestApplyDelta_NegativeGuard(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	seedCounter(t, db, "test-empty", "test-wh", 2, 0)

	// Correct version but the delta would drive the counter negative; the
	// server-side guard must reject it.
	ok, err := adapter.ApplyDelta(ctx, "test-empty", "test-wh", -3, 0, testMovement("test-empty", "test-wh", -3))
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if ok {
		t.Error("expected the quantity guard to reject the write")
	}

	counter, _ := adapter.GetCounter(ctx, "test-empty", "test-wh")
	if counter.Quantity != 2 || counter.Version != 0 {
		t.Errorf("expected counter unchanged (2, v0), got (%d, v%d)", counter.Quantity, counter.Version)
	}
}

func TestGetCounter_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)

	counter, err := adapter.GetCounter(context.Background(), "no-such-product", "no-such-wh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != nil {
		t.Error("expected nil for nonexistent counter")
	}
}

func TestDebitPoints_Conditional(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	_, err := db.ExecContext(ctx, `
		INSERT INTO loyalty_accounts (customer_id, balance, lifetime_earned, lifetime_redeemed, tier, first_transaction)
		VALUES ('test-cust', 100, 100, 0, '', 0)
		ON DUPLICATE KEY UPDATE balance = 100, lifetime_redeemed = 0`)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	balance, ok, err := adapter.DebitPoints(ctx, "test-cust", 60)
	if err != nil {
		t.Fatalf("DebitPoints failed: %v", err)
	}
	if !ok {
		t.Fatal("expected debit to succeed")
	}
	if balance != 40 {
		t.Errorf("expected debited balance 40, got %d", balance)
	}

	// Balance 40 left; an overdraw must be rejected.
	_, ok, err = adapter.DebitPoints(ctx, "test-cust", 60)
	if err != nil {
		t.Fatalf("DebitPoints failed: %v", err)
	}
	if ok {
		t.Error("expected overdraw to be rejected")
	}

	account, _ := adapter.GetAccount(ctx, "test-cust")
	if account.Balance != 40 {
		t.Errorf("expected balance 40, got %d", account.Balance)
	}
}
