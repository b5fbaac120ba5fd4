package port

import (
	"context"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

type StockRepository interface {
	// GetCounter retrieves a stock counter; nil when not found.
	GetCounter(ctx context.Context, productID, warehouseID string) (*domain.StockCounter, error)

	// ApplyDelta performs the conditional update: quantity += delta and
	// version += 1, only if the stored version still equals expectedVersion,
	// appending the movement record in the same transaction. Returns false
	// when a concurrent writer won the race (zero rows matched).
	ApplyDelta(ctx context.Context, productID, warehouseID string, delta, expectedVersion int, movement domain.StockMutation) (bool, error)
}
