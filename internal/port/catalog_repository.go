package port

import (
	"context"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

type CatalogRepository interface {
	// GetMenuItem retrieves a menu item by ID; nil when not found.
	GetMenuItem(ctx context.Context, menuItemID string) (*domain.MenuItem, error)

	// GetRecipe retrieves the stocked-component recipe for a menu item;
	// nil when the item has no stock effect.
	GetRecipe(ctx context.Context, menuItemID string) (*domain.Recipe, error)
}
