package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/port"
)

// PriceResolver turns a requested line item into a priced, immutable snapshot.
type PriceResolver struct {
	catalog port.CatalogRepository
	logger  *zap.Logger
}

func NewPriceResolver(catalog port.CatalogRepository, logger *zap.Logger) *PriceResolver {
	return &PriceResolver{catalog: catalog, logger: logger}
}

// Resolve looks up the menu item, validates the selected modifiers and
// computes the line subtotal. Unknown topping/addon ids are dropped with a
// warning; a missing menu item or a non-positive quantity is an error.
func (r *PriceResolver) Resolve(ctx context.Context, req domain.ItemRequest) (domain.LineItem, error) {
	if req.Quantity <= 0 {
		return domain.LineItem{}, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrValidation, req.Quantity)
	}

	item, err := r.catalog.GetMenuItem(ctx, req.MenuItemID)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("menu item lookup: %w", err)
	}
	if item == nil {
		return domain.LineItem{}, fmt.Errorf("%w: menu item %s", domain.ErrNotFound, req.MenuItemID)
	}
	if !item.Available {
		return domain.LineItem{}, fmt.Errorf("%w: menu item %s is not available", domain.ErrValidation, item.ID)
	}

	unit := item.BasePrice
	var toppings []domain.SelectedModifier
	for _, id := range req.ToppingIDs {
		t, ok := item.ToppingByID(id)
		if !ok {
			r.logger.Warn("dropping unknown topping",
				zap.String("menu_item_id", item.ID),
				zap.String("topping_id", id))
			continue
		}
		toppings = append(toppings, domain.SelectedModifier{ID: t.ID, Name: t.Name, Price: t.Price})
		unit += t.Price
	}

	var addons []domain.SelectedModifier
	for _, id := range req.AddonOptionIDs {
		a, ok := item.AddonOptionByID(id)
		if !ok {
			r.logger.Warn("dropping unknown addon option",
				zap.String("menu_item_id", item.ID),
				zap.String("addon_option_id", id))
			continue
		}
		addons = append(addons, domain.SelectedModifier{ID: a.ID, Name: a.Name, Price: a.Price})
		unit += a.Price
	}

	return domain.LineItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Category:   item.Category,
		UnitPrice:  unit,
		Quantity:   req.Quantity,
		Toppings:   toppings,
		Addons:     addons,
		Notes:      req.Notes,
		Subtotal:   unit * domain.Money(req.Quantity),
	}, nil
}
