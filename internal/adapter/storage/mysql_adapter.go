package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

// MySQLAdapter implements the catalog, promotion, loyalty and stock
// repositories. Stock counters use a version-conditioned update; the
// movement record is appended in the same transaction.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// --- catalog ---

func (m *MySQLAdapter) GetMenuItem(ctx context.Context, menuItemID string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := m.db.QueryRowContext(ctx, `
		SELECT id, outlet_id, name, category, base_price, available
		FROM menu_items WHERE id = ?`, menuItemID,
	).Scan(&item.ID, &item.OutletID, &item.Name, &item.Category, &item.BasePrice, &item.Available)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query menu item: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price FROM menu_item_toppings WHERE menu_item_id = ?`, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("query toppings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t domain.Topping
		if err := rows.Scan(&t.ID, &t.Name, &t.Price); err != nil {
			return nil, fmt.Errorf("scan topping: %w", err)
		}
		item.Toppings = append(item.Toppings, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate toppings: %w", err)
	}

	optRows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price FROM menu_item_addon_options WHERE menu_item_id = ?`, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("query addon options: %w", err)
	}
	defer optRows.Close()
	for optRows.Next() {
		var a domain.AddonOption
		if err := optRows.Scan(&a.ID, &a.Name, &a.Price); err != nil {
			return nil, fmt.Errorf("scan addon option: %w", err)
		}
		item.AddonOptions = append(item.AddonOptions, a)
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addon options: %w", err)
	}

	return &item, nil
}

func (m *MySQLAdapter) GetRecipe(ctx context.Context, menuItemID string) (*domain.Recipe, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, warehouse_id, quantity
		FROM recipes WHERE menu_item_id = ?`, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("query recipe: %w", err)
	}
	defer rows.Close()

	recipe := domain.Recipe{MenuItemID: menuItemID}
	for rows.Next() {
		var c domain.RecipeComponent
		if err := rows.Scan(&c.ProductID, &c.WarehouseID, &c.Quantity); err != nil {
			return nil, fmt.Errorf("scan recipe component: %w", err)
		}
		recipe.Components = append(recipe.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe: %w", err)
	}
	if len(recipe.Components) == 0 {
		return nil, nil
	}
	return &recipe, nil
}

// --- promotions ---

func (m *MySQLAdapter) ListAutoPromotions(ctx context.Context, outletID string) ([]domain.AutoPromotion, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, type, kind, value, conditions, valid_from, valid_to, schedule, consumer_types
		FROM auto_promotions WHERE outlet_id = ?`, outletID)
	if err != nil {
		return nil, fmt.Errorf("query auto promotions: %w", err)
	}
	defer rows.Close()

	var promos []domain.AutoPromotion
	for rows.Next() {
		var p domain.AutoPromotion
		var conditions, schedule, consumerTypes sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Kind, &p.Value,
			&conditions, &p.ValidFrom, &p.ValidTo, &schedule, &consumerTypes); err != nil {
			return nil, fmt.Errorf("scan auto promotion: %w", err)
		}
		if err := decodeJSON(conditions, &p.Conditions); err != nil {
			return nil, fmt.Errorf("decode conditions for %s: %w", p.ID, err)
		}
		if err := decodeJSON(schedule, &p.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule for %s: %w", p.ID, err)
		}
		if err := decodeJSON(consumerTypes, &p.ConsumerTypes); err != nil {
			return nil, fmt.Errorf("decode consumer types for %s: %w", p.ID, err)
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func (m *MySQLAdapter) GetManualPromotion(ctx context.Context, promotionID string) (*domain.ManualPromotion, error) {
	var p domain.ManualPromotion
	var outletIDs sql.NullString
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, kind, value, valid_from, valid_to, outlet_ids
		FROM manual_promotions WHERE id = ?`, promotionID,
	).Scan(&p.ID, &p.Name, &p.Kind, &p.Value, &p.ValidFrom, &p.ValidTo, &outletIDs)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query manual promotion: %w", err)
	}
	if err := decodeJSON(outletIDs, &p.OutletIDs); err != nil {
		return nil, fmt.Errorf("decode outlet ids for %s: %w", p.ID, err)
	}
	return &p, nil
}

func (m *MySQLAdapter) GetVoucher(ctx context.Context, code string) (*domain.Voucher, error) {
	var v domain.Voucher
	var outletIDs sql.NullString
	err := m.db.QueryRowContext(ctx, `
		SELECT code, name, kind, value, valid_from, valid_to, outlet_ids, quota
		FROM vouchers WHERE code = ?`, code,
	).Scan(&v.Code, &v.Name, &v.Kind, &v.Value, &v.ValidFrom, &v.ValidTo, &outletIDs, &v.Quota)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query voucher: %w", err)
	}
	if err := decodeJSON(outletIDs, &v.OutletIDs); err != nil {
		return nil, fmt.Errorf("decode outlet ids for voucher %s: %w", v.Code, err)
	}
	return &v, nil
}

func (m *MySQLAdapter) ListTaxCharges(ctx context.Context, outletID string) ([]domain.TaxCharge, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, kind, disc_kind, value, scope, product_ids, active
		FROM tax_charges WHERE outlet_id = ?`, outletID)
	if err != nil {
		return nil, fmt.Errorf("query tax charges: %w", err)
	}
	defer rows.Close()

	var charges []domain.TaxCharge
	for rows.Next() {
		c := domain.TaxCharge{OutletID: outletID}
		var productIDs sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.DiscKind, &c.Value,
			&c.Scope, &productIDs, &c.Active); err != nil {
			return nil, fmt.Errorf("scan tax charge: %w", err)
		}
		if err := decodeJSON(productIDs, &c.ProductIDs); err != nil {
			return nil, fmt.Errorf("decode product ids for charge %s: %w", c.ID, err)
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

// --- loyalty ---

func (m *MySQLAdapter) GetProgram(ctx context.Context, outletID string) (*domain.LoyaltyProgram, error) {
	var p domain.LoyaltyProgram
	var tiers sql.NullString
	err := m.db.QueryRowContext(ctx, `
		SELECT id, outlet_id, active, point_value, points_per_unit, first_transaction_bonus, tiers
		FROM loyalty_programs WHERE outlet_id = ?`, outletID,
	).Scan(&p.ID, &p.OutletID, &p.Active, &p.PointValue, &p.PointsPerUnit, &p.FirstTransactionBonus, &tiers)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query loyalty program: %w", err)
	}
	if err := decodeJSON(tiers, &p.Tiers); err != nil {
		return nil, fmt.Errorf("decode tiers for program %s: %w", p.ID, err)
	}
	return &p, nil
}

func (m *MySQLAdapter) GetAccount(ctx context.Context, customerID string) (*domain.LoyaltyAccount, error) {
	var a domain.LoyaltyAccount
	err := m.db.QueryRowContext(ctx, `
		SELECT customer_id, balance, lifetime_earned, lifetime_redeemed, tier, first_transaction
		FROM loyalty_accounts WHERE customer_id = ?`, customerID,
	).Scan(&a.CustomerID, &a.Balance, &a.LifetimeEarned, &a.LifetimeRedeemed, &a.Tier, &a.FirstTransaction)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query loyalty account: %w", err)
	}
	return &a, nil
}

func (m *MySQLAdapter) DebitPoints(ctx context.Context, customerID string, points int) (int, bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin debit tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE loyalty_accounts
		SET balance = balance - ?, lifetime_redeemed = lifetime_redeemed + ?
		WHERE customer_id = ? AND balance >= ?`,
		points, points, customerID, points,
	)
	if err != nil {
		return 0, false, fmt.Errorf("debit points: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, false, nil
	}

	var balance int
	err = tx.QueryRowContext(ctx, `
		SELECT balance FROM loyalty_accounts WHERE customer_id = ?`, customerID,
	).Scan(&balance)
	if err != nil {
		return 0, false, fmt.Errorf("read balance after debit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit debit tx: %w", err)
	}
	return balance, true, nil
}

func (m *MySQLAdapter) CreditPoints(ctx context.Context, account domain.LoyaltyAccount, points int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE loyalty_accounts
		SET balance = ?, lifetime_earned = ?, tier = ?, first_transaction = ?
		WHERE customer_id = ?`,
		account.Balance, account.LifetimeEarned, account.Tier, account.FirstTransaction,
		account.CustomerID,
	)
	if err != nil {
		return fmt.Errorf("credit points: %w", err)
	}
	return nil
}

// --- stock ---

func (m *MySQLAdapter) GetCounter(ctx context.Context, productID, warehouseID string) (*domain.StockCounter, error) {
	var c domain.StockCounter
	err := m.db.QueryRowContext(ctx, `
		SELECT product_id, warehouse_id, quantity, version, updated_at
		FROM stock_counters WHERE product_id = ? AND warehouse_id = ?`,
		productID, warehouseID,
	).Scan(&c.ProductID, &c.WarehouseID, &c.Quantity, &c.Version, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query stock counter: %w", err)
	}
	return &c, nil
}

// ApplyDelta performs the conditional counter update and appends the
// movement record in one transaction. The quantity guard doubles the
// ledger's pre-check server-side so the counter can never go negative even
// if a caller skips the check.
func (m *MySQLAdapter) ApplyDelta(ctx context.Context, productID, warehouseID string, delta, expectedVersion int, movement domain.StockMutation) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE stock_counters
		SET quantity = quantity + ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ? AND warehouse_id = ? AND version = ? AND quantity + ? >= 0`,
		delta, productID, warehouseID, expectedVersion, delta,
	)
	if err != nil {
		return false, fmt.Errorf("update stock counter: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, product_id, warehouse_id, delta, reason, actor, reference_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.ProductID, movement.WarehouseID, movement.Delta,
		movement.Reason, movement.Actor, movement.ReferenceID, movement.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert stock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func decodeJSON(col sql.NullString, out any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), out)
}
