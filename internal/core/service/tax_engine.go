package service

import (
	"context"
	"fmt"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/port"
)

// TaxEngine computes tax and service-fee lines against the post-discount
// taxable base, honoring per-charge item scoping. Line items in an excluded
// category (and their share of the discounted base) never enter any base.
type TaxEngine struct {
	promos             port.PromotionRepository
	excludedCategories map[string]struct{}
}

func NewTaxEngine(promos port.PromotionRepository, excludedCategories []string) *TaxEngine {
	excluded := make(map[string]struct{}, len(excludedCategories))
	for _, c := range excludedCategories {
		excluded[c] = struct{}{}
	}
	return &TaxEngine{promos: promos, excludedCategories: excluded}
}

// TaxInput is the post-discount order state taxes are computed on.
type TaxInput struct {
	OutletID          string
	Items             []domain.LineItem
	CustomAmountItems []domain.CustomAmountItem
	// DiscountedTotal is the payable amount after all discounts; the base
	// for ScopeAllItems charges after category exclusion is applied.
	DiscountedTotal domain.Money
}

// TaxResult is the charge lines plus the two aggregates.
type TaxResult struct {
	Lines           []domain.TaxLine
	TotalTax        domain.Money
	TotalServiceFee domain.Money
}

// Compute evaluates every active charge configured for the outlet.
func (e *TaxEngine) Compute(ctx context.Context, in TaxInput) (TaxResult, error) {
	charges, err := e.promos.ListTaxCharges(ctx, in.OutletID)
	if err != nil {
		return TaxResult{}, fmt.Errorf("list tax charges: %w", err)
	}

	var res TaxResult
	for i := range charges {
		c := &charges[i]
		if !c.Active {
			continue
		}

		base := e.chargeBase(c, in)
		amount := chargeAmount(c, base)
		if amount <= 0 {
			continue
		}

		res.Lines = append(res.Lines, domain.TaxLine{
			ChargeID: c.ID,
			Name:     c.Name,
			Kind:     c.Kind,
			Base:     base,
			Amount:   amount,
		})
		switch c.Kind {
		case domain.ChargeService:
			res.TotalServiceFee += amount
		default:
			res.TotalTax += amount
		}
	}
	return res, nil
}

// chargeBase determines the amount a charge applies to. For all-items scope
// the discounted total is used, reduced by the excluded categories' share;
// for item-set scope the in-set items' subtotals are summed directly.
func (e *TaxEngine) chargeBase(c *domain.TaxCharge, in TaxInput) domain.Money {
	if c.Scope == domain.ScopeItemSet {
		var base domain.Money
		for _, it := range in.Items {
			if e.excluded(it.Category) {
				continue
			}
			if c.AppliesTo(it.MenuItemID) {
				base += it.Subtotal
			}
		}
		for _, ca := range in.CustomAmountItems {
			if c.AppliesTo(ca.Label) {
				base += ca.Amount
			}
		}
		return base
	}

	// Scale the discounted total by the non-excluded share of the gross
	// subtotal, so discounts are pro-rated over excluded items too.
	var gross, excluded domain.Money
	for _, it := range in.Items {
		gross += it.Subtotal
		if e.excluded(it.Category) {
			excluded += it.Subtotal
		}
	}
	for _, ca := range in.CustomAmountItems {
		gross += ca.Amount
	}
	base := in.DiscountedTotal
	if excluded > 0 && gross > 0 {
		base = in.DiscountedTotal * (gross - excluded) / gross
	}
	if base < 0 {
		base = 0
	}
	return base
}

func (e *TaxEngine) excluded(category string) bool {
	_, ok := e.excludedCategories[category]
	return ok
}

// chargeAmount computes a percentage charge against the base, or returns the
// configured flat fee when the base is payable.
func chargeAmount(c *domain.TaxCharge, base domain.Money) domain.Money {
	if base <= 0 {
		return 0
	}
	if c.DiscKind == domain.DiscountFixed {
		return c.Value
	}
	pct := c.Value
	if pct < 0 {
		return 0
	}
	return base * pct / 100
}
