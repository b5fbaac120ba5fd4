package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/port"
)

const (
	defaultStockRetries   = 3
	defaultStockRetryWait = 50 * time.Millisecond

	defaultLockRetries   = 5
	defaultLockRetryWait = 100 * time.Millisecond
	defaultLockTTL       = 10 * time.Second

	reserveLockPrefix = "reserve:"
)

// StockLedger mutates per-warehouse stock counters with optimistic
// concurrency: read (quantity, version), write conditioned on version
// equality, re-read and retry on conflict with a bounded budget.
// Multi-component reservations for one order are serialized by a
// coordination lock and compensated on partial failure.
type StockLedger struct {
	stock  port.StockRepository
	cache  port.CacheRepository
	logger *zap.Logger

	retries   int
	retryWait time.Duration

	lockRetries   int
	lockRetryWait time.Duration
	lockTTL       time.Duration
}

func NewStockLedger(stock port.StockRepository, cache port.CacheRepository, logger *zap.Logger) *StockLedger {
	return &StockLedger{
		stock:         stock,
		cache:         cache,
		logger:        logger,
		retries:       defaultStockRetries,
		retryWait:     defaultStockRetryWait,
		lockRetries:   defaultLockRetries,
		lockRetryWait: defaultLockRetryWait,
		lockTTL:       defaultLockTTL,
	}
}

// SetRetryPolicy overrides the optimistic-retry budget. The lock TTL must
// exceed the worst case of a full reservation sequence.
func (l *StockLedger) SetRetryPolicy(retries int, wait time.Duration, lockTTL time.Duration) {
	l.retries = retries
	l.retryWait = wait
	l.lockTTL = lockTTL
}

// Reserve applies one signed delta to a counter. Negative deltas are
// pre-checked so quantity can never go negative; no write is attempted when
// the check fails. Exhausting the retry budget returns ErrConflict.
func (l *StockLedger) Reserve(ctx context.Context, req domain.StockRequest, actor, referenceID string) (domain.StockMutation, error) {
	for attempt := 0; attempt < l.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(l.retryWait):
			case <-ctx.Done():
				return domain.StockMutation{}, ctx.Err()
			}
		}

		counter, err := l.stock.GetCounter(ctx, req.ProductID, req.WarehouseID)
		if err != nil {
			return domain.StockMutation{}, fmt.Errorf("read stock counter: %w", err)
		}
		if counter == nil {
			return domain.StockMutation{}, fmt.Errorf("%w: stock counter %s/%s", domain.ErrNotFound, req.ProductID, req.WarehouseID)
		}
		if req.Delta < 0 && counter.Quantity+req.Delta < 0 {
			return domain.StockMutation{}, fmt.Errorf("%w: %s/%s has %d, requested %d",
				domain.ErrInsufficientStock, req.ProductID, req.WarehouseID, counter.Quantity, -req.Delta)
		}

		movement := domain.StockMutation{
			ID:          uuid.NewString(),
			ProductID:   req.ProductID,
			WarehouseID: req.WarehouseID,
			Delta:       req.Delta,
			Reason:      req.Reason,
			Actor:       actor,
			ReferenceID: referenceID,
			CreatedAt:   time.Now().UTC(),
		}

		ok, err := l.stock.ApplyDelta(ctx, req.ProductID, req.WarehouseID, req.Delta, counter.Version, movement)
		if err != nil {
			return domain.StockMutation{}, fmt.Errorf("apply stock delta: %w", err)
		}
		if ok {
			return movement, nil
		}

		l.logger.Debug("stock version conflict, retrying",
			zap.String("product_id", req.ProductID),
			zap.String("warehouse_id", req.WarehouseID),
			zap.Int("attempt", attempt+1))
	}

	return domain.StockMutation{}, fmt.Errorf("%w: %s/%s after %d attempts",
		domain.ErrConflict, req.ProductID, req.WarehouseID, l.retries)
}

// ReserveAll commits every request or none. Reservations spanning more than
// one counter are serialized per order by the coordination lock, so two
// requests for the same order cannot interleave partial reservations. All
// counters are pre-validated before the first write; if a later write still
// fails, the already-committed components are reversed.
func (l *StockLedger) ReserveAll(ctx context.Context, orderID, actor string, reqs []domain.StockRequest) ([]domain.StockMutation, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if len(reqs) == 1 {
		m, err := l.Reserve(ctx, reqs[0], actor, orderID)
		if err != nil {
			return nil, err
		}
		return []domain.StockMutation{m}, nil
	}

	lockKey := reserveLockPrefix + orderID
	owner := uuid.NewString()
	if err := l.acquireLock(ctx, lockKey, owner); err != nil {
		return nil, err
	}
	defer l.releaseLock(ctx, lockKey, owner, orderID)

	if err := l.preValidate(ctx, reqs); err != nil {
		return nil, err
	}

	committed := make([]domain.StockMutation, 0, len(reqs))
	for _, req := range reqs {
		m, err := l.Reserve(ctx, req, actor, orderID)
		if err != nil {
			l.compensate(ctx, orderID, actor, committed)
			return nil, err
		}
		committed = append(committed, m)
	}
	return committed, nil
}

// preValidate reads every touched counter and checks availability against
// the summed deltas per counter, before any write. A lost race after this
// check is still caught by the conditional write.
func (l *StockLedger) preValidate(ctx context.Context, reqs []domain.StockRequest) error {
	type key struct{ product, warehouse string }
	totals := make(map[key]int)
	for _, req := range reqs {
		totals[key{req.ProductID, req.WarehouseID}] += req.Delta
	}

	for k, delta := range totals {
		counter, err := l.stock.GetCounter(ctx, k.product, k.warehouse)
		if err != nil {
			return fmt.Errorf("read stock counter: %w", err)
		}
		if counter == nil {
			return fmt.Errorf("%w: stock counter %s/%s", domain.ErrNotFound, k.product, k.warehouse)
		}
		if delta < 0 && counter.Quantity+delta < 0 {
			return fmt.Errorf("%w: %s/%s has %d, requested %d",
				domain.ErrInsufficientStock, k.product, k.warehouse, counter.Quantity, -delta)
		}
	}
	return nil
}

// compensate reverses already-committed component reservations after a
// sibling failed. A failed reversal is unrecoverable here and is surfaced to
// operators through the log.
func (l *StockLedger) compensate(ctx context.Context, orderID, actor string, committed []domain.StockMutation) {
	for i := len(committed) - 1; i >= 0; i-- {
		m := committed[i]
		reversal := domain.StockRequest{
			ProductID:   m.ProductID,
			WarehouseID: m.WarehouseID,
			Delta:       -m.Delta,
			Reason:      "compensation",
		}
		if _, err := l.Reserve(ctx, reversal, actor, orderID); err != nil {
			l.logger.Error("stock compensation failed",
				zap.String("order_id", orderID),
				zap.String("product_id", m.ProductID),
				zap.String("warehouse_id", m.WarehouseID),
				zap.Int("delta", -m.Delta),
				zap.Error(err))
		}
	}
}

func (l *StockLedger) acquireLock(ctx context.Context, key, owner string) error {
	for attempt := 0; attempt < l.lockRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(l.lockRetryWait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		ok, err := l.cache.AcquireLock(ctx, key, owner, l.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire reservation lock: %w", err)
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %s after %d attempts", domain.ErrLockUnavailable, key, l.lockRetries)
}

// releaseLock deletes the lock only while still owned. A not-owned result
// means the TTL expired mid-sequence; the serialization guarantee degraded
// to best effort, so it is logged loudly instead of silently tolerated.
func (l *StockLedger) releaseLock(ctx context.Context, key, owner, orderID string) {
	owned, err := l.cache.ReleaseLock(ctx, key, owner)
	if err != nil {
		l.logger.Warn("reservation lock release failed",
			zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if !owned {
		l.logger.Error("reservation lock expired before release",
			zap.String("order_id", orderID),
			zap.String("lock_key", key))
	}
}
