package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

// Mock CatalogRepository
type mockCatalog struct {
	items   map[string]*domain.MenuItem
	recipes map[string]*domain.Recipe
	err     error
}

func (m *mockCatalog) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items[id], nil
}

func (m *mockCatalog) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.recipes[id], nil
}

// Mock PromotionRepository
type mockPromos struct {
	autos    []domain.AutoPromotion
	manuals  map[string]*domain.ManualPromotion
	vouchers map[string]*domain.Voucher
	charges  []domain.TaxCharge
	err      error
}

func (m *mockPromos) ListAutoPromotions(ctx context.Context, outletID string) ([]domain.AutoPromotion, error) {
	return m.autos, m.err
}

func (m *mockPromos) GetManualPromotion(ctx context.Context, id string) (*domain.ManualPromotion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.manuals[id], nil
}

func (m *mockPromos) GetVoucher(ctx context.Context, code string) (*domain.Voucher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vouchers[code], nil
}

func (m *mockPromos) ListTaxCharges(ctx context.Context, outletID string) ([]domain.TaxCharge, error) {
	return m.charges, m.err
}

// Mock LoyaltyRepository
type mockLoyalty struct {
	mu         sync.Mutex
	program    *domain.LoyaltyProgram
	accounts   map[string]*domain.LoyaltyAccount
	lookupErr  error
	creditErr  error
	credited   []domain.LoyaltyAccount
	debitFails  int    // transient debit errors to burn before succeeding
	debited     int    // total points actually removed from balances
	beforeDebit func() // runs before each debit takes the lock
}

func (m *mockLoyalty) GetProgram(ctx context.Context, outletID string) (*domain.LoyaltyProgram, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.program, nil
}

func (m *mockLoyalty) GetAccount(ctx context.Context, customerID string) (*domain.LoyaltyAccount, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[customerID]
	if !ok {
		return nil, nil
	}
	copied := *acc
	return &copied, nil
}

func (m *mockLoyalty) DebitPoints(ctx context.Context, customerID string, points int) (int, bool, error) {
	if m.beforeDebit != nil {
		m.beforeDebit()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debitFails > 0 {
		m.debitFails--
		return 0, false, errors.New("debit temporarily unavailable")
	}
	acc, ok := m.accounts[customerID]
	if !ok || acc.Balance < points {
		return 0, false, nil
	}
	acc.Balance -= points
	acc.LifetimeRedeemed += points
	m.debited += points
	return acc.Balance, true, nil
}

func (m *mockLoyalty) CreditPoints(ctx context.Context, account domain.LoyaltyAccount, points int) error {
	if m.creditErr != nil {
		return m.creditErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := account
	m.accounts[account.CustomerID] = &copied
	m.credited = append(m.credited, account)
	return nil
}

// Mock StockRepository with injectable CAS failures
type mockStock struct {
	mu            sync.Mutex
	counters      map[string]*domain.StockCounter
	movements     []domain.StockMutation
	injectedFails map[string]int // per-key CAS failures to burn before succeeding
	versions      []int          // version after each successful write
}

func newMockStock() *mockStock {
	return &mockStock{
		counters:      make(map[string]*domain.StockCounter),
		injectedFails: make(map[string]int),
	}
}

func stockKey(productID, warehouseID string) string {
	return productID + "/" + warehouseID
}

func (m *mockStock) set(productID, warehouseID string, quantity, version int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[stockKey(productID, warehouseID)] = &domain.StockCounter{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		Version:     version,
	}
}

func (m *mockStock) GetCounter(ctx context.Context, productID, warehouseID string) (*domain.StockCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[stockKey(productID, warehouseID)]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *mockStock) ApplyDelta(ctx context.Context, productID, warehouseID string, delta, expectedVersion int, movement domain.StockMutation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := stockKey(productID, warehouseID)
	c, ok := m.counters[key]
	if !ok {
		return false, nil
	}
	if m.injectedFails[key] > 0 {
		m.injectedFails[key]--
		return false, nil
	}
	if c.Version != expectedVersion || c.Quantity+delta < 0 {
		return false, nil
	}
	c.Quantity += delta
	c.Version++
	m.movements = append(m.movements, movement)
	m.versions = append(m.versions, c.Version)
	return true, nil
}

// Mock CacheRepository
type mockCache struct {
	mu          sync.Mutex
	locks       map[string]string
	idempotency map[string]bool
	denyLocks   bool
}

func newMockCache() *mockCache {
	return &mockCache{
		locks:       make(map[string]string),
		idempotency: make(map[string]bool),
	}
}

func (m *mockCache) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denyLocks {
		return false, nil
	}
	if _, held := m.locks[key]; held {
		return false, nil
	}
	m.locks[key] = owner
	return true, nil
}

func (m *mockCache) ReleaseLock(ctx context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] != owner {
		return false, nil
	}
	delete(m.locks, key)
	return true, nil
}

func (m *mockCache) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotency[key] {
		return false, nil
	}
	m.idempotency[key] = true
	return true, nil
}

func (m *mockCache) DeleteIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotency, key)
	return nil
}

// Mock EventPublisher
type mockEvents struct {
	mu     sync.Mutex
	events []domain.OrderPricedEvent
}

func (m *mockEvents) PublishOrderPriced(ctx context.Context, event domain.OrderPricedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}
