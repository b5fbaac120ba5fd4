package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/port"
)

// DiscountEngine evaluates automatic promotions, one manual promotion and one
// voucher in fixed precedence. Every stage operates on the running remaining
// amount and is capped so the remaining never goes below zero.
type DiscountEngine struct {
	promos port.PromotionRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewDiscountEngine(promos port.PromotionRepository, logger *zap.Logger) *DiscountEngine {
	return &DiscountEngine{promos: promos, logger: logger, now: time.Now}
}

// DiscountInput is the state the engine evaluates against. Remaining is the
// payable amount after loyalty redemption.
type DiscountInput struct {
	OutletID          string
	Channel           domain.OrderChannel
	ConsumerType      string
	ManualPromotionID string
	VoucherCode       string
	Items             []domain.LineItem
	Remaining         domain.Money
}

// DiscountResult is the itemized breakdown plus the aggregate figures.
type DiscountResult struct {
	Auto      domain.Money
	Manual    domain.Money
	Voucher   domain.Money
	Total     domain.Money
	Applied   []domain.AppliedPromotion
	Remaining domain.Money
}

// Apply runs the three discount stages in order: auto-promotions, manual
// promotion, voucher.
func (e *DiscountEngine) Apply(ctx context.Context, in DiscountInput) (DiscountResult, error) {
	res := DiscountResult{Remaining: in.Remaining}
	now := e.now()

	promos, err := e.promos.ListAutoPromotions(ctx, in.OutletID)
	if err != nil {
		return DiscountResult{}, fmt.Errorf("list auto promotions: %w", err)
	}

	for i := range promos {
		p := &promos[i]
		if !p.ActiveAt(now, in.ConsumerType) {
			continue
		}
		amount := e.evaluateAuto(p, in.Items, res.Remaining)
		if amount <= 0 {
			continue
		}
		if amount > res.Remaining {
			amount = res.Remaining
		}
		res.Auto += amount
		res.Remaining -= amount
		res.Applied = append(res.Applied, domain.AppliedPromotion{
			PromotionID: p.ID,
			Name:        p.Name,
			Type:        p.Type,
			Amount:      amount,
		})
	}

	if in.ManualPromotionID != "" {
		amount, applied, err := e.applyManual(ctx, in, now, res.Remaining)
		if err != nil {
			return DiscountResult{}, err
		}
		res.Manual = amount
		res.Remaining -= amount
		res.Applied = append(res.Applied, applied)
	}

	if in.VoucherCode != "" {
		amount, applied, err := e.applyVoucher(ctx, in, now, res.Remaining)
		if err != nil {
			return DiscountResult{}, err
		}
		res.Voucher = amount
		res.Remaining -= amount
		res.Applied = append(res.Applied, applied)
	}

	res.Total = res.Auto + res.Manual + res.Voucher
	return res, nil
}

func (e *DiscountEngine) applyManual(ctx context.Context, in DiscountInput, now time.Time, remaining domain.Money) (domain.Money, domain.AppliedPromotion, error) {
	if !in.Channel.Authenticated() {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("%w: manual promotion not allowed on channel %s", domain.ErrValidation, in.Channel)
	}
	promo, err := e.promos.GetManualPromotion(ctx, in.ManualPromotionID)
	if err != nil {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("manual promotion lookup: %w", err)
	}
	if promo == nil {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("%w: manual promotion %s", domain.ErrNotFound, in.ManualPromotionID)
	}
	if !promo.ValidFor(now, in.OutletID) {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("%w: manual promotion %s not valid for outlet %s", domain.ErrValidation, promo.ID, in.OutletID)
	}
	amount := discountAmount(promo.Kind, promo.Value, remaining)
	return amount, domain.AppliedPromotion{
		PromotionID: promo.ID,
		Name:        promo.Name,
		Type:        domain.PromoManual,
		Amount:      amount,
	}, nil
}

func (e *DiscountEngine) applyVoucher(ctx context.Context, in DiscountInput, now time.Time, remaining domain.Money) (domain.Money, domain.AppliedPromotion, error) {
	if !in.Channel.Authenticated() {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("%w: voucher not allowed on channel %s", domain.ErrValidation, in.Channel)
	}
	voucher, err := e.promos.GetVoucher(ctx, in.VoucherCode)
	if err != nil {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("voucher lookup: %w", err)
	}
	if voucher == nil {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("%w: voucher %s", domain.ErrNotFound, in.VoucherCode)
	}
	if !voucher.ValidFor(now, in.OutletID) {
		return 0, domain.AppliedPromotion{}, fmt.Errorf("%w: voucher %s not redeemable at outlet %s", domain.ErrValidation, voucher.Code, in.OutletID)
	}
	amount := discountAmount(voucher.Kind, voucher.Value, remaining)
	return amount, domain.AppliedPromotion{
		PromotionID: voucher.Code,
		Name:        voucher.Name,
		Type:        domain.PromoVoucher,
		Amount:      amount,
	}, nil
}

// evaluateAuto computes one promotion's raw discount against the current
// order state. The caller caps the result to the running remaining amount.
func (e *DiscountEngine) evaluateAuto(p *domain.AutoPromotion, items []domain.LineItem, remaining domain.Money) domain.Money {
	switch p.Type {
	case domain.PromoTotalThreshold:
		if remaining < p.Conditions.MinTotal {
			return 0
		}
		return discountAmount(p.Kind, p.Value, remaining)

	case domain.PromoQuantityThreshold:
		var total domain.Money
		for _, it := range items {
			if it.Quantity >= p.Conditions.MinQuantity {
				total += discountAmount(p.Kind, p.Value, it.Subtotal)
			}
		}
		return total

	case domain.PromoProductSpecific:
		var total domain.Money
		for _, it := range items {
			if containsString(p.Conditions.ProductIDs, it.MenuItemID) {
				total += discountAmount(p.Kind, p.Value, it.Subtotal)
			}
		}
		return total

	case domain.PromoBundle:
		return bundleDiscount(p, items)

	case domain.PromoBuyXGetY:
		return buyXGetYDiscount(p, items)

	default:
		e.logger.Warn("skipping promotion with unknown type",
			zap.String("promotion_id", p.ID),
			zap.String("type", string(p.Type)))
		return 0
	}
}

// bundleDiscount counts complete bundle sets across the required components
// and discounts the gap between the components' original price and the
// configured bundle price, per set.
func bundleDiscount(p *domain.AutoPromotion, items []domain.LineItem) domain.Money {
	if len(p.Conditions.BundleComponents) == 0 {
		return 0
	}

	sets := -1
	var originalPrice domain.Money
	for _, comp := range p.Conditions.BundleComponents {
		if comp.Quantity <= 0 {
			return 0
		}
		line := findItem(items, comp.ProductID)
		if line == nil {
			return 0
		}
		compSets := line.Quantity / comp.Quantity
		if sets == -1 || compSets < sets {
			sets = compSets
		}
		originalPrice += line.UnitPrice * domain.Money(comp.Quantity)
	}
	if sets <= 0 {
		return 0
	}

	perSet := originalPrice - p.Conditions.BundlePrice
	if perSet < 0 {
		perSet = 0
	}
	return domain.Money(sets) * perSet
}

// buyXGetYDiscount grants the get-item free once per complete buy-set, never
// for more units of the get-item than the order actually contains.
func buyXGetYDiscount(p *domain.AutoPromotion, items []domain.LineItem) domain.Money {
	if p.Conditions.MinBuyQuantity <= 0 {
		return 0
	}
	buy := findItem(items, p.Conditions.BuyProductID)
	get := findItem(items, p.Conditions.GetProductID)
	if buy == nil || get == nil {
		return 0
	}
	freeSets := buy.Quantity / p.Conditions.MinBuyQuantity
	if freeSets > get.Quantity {
		freeSets = get.Quantity
	}
	return domain.Money(freeSets) * get.UnitPrice
}

// discountAmount applies a percentage or fixed discount to a base.
// Percentages are clamped to [0,100]; the result never exceeds the base and
// is never negative.
func discountAmount(kind domain.DiscountKind, value, base domain.Money) domain.Money {
	if base <= 0 {
		return 0
	}
	var amount domain.Money
	switch kind {
	case domain.DiscountPercentage:
		pct := value
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		amount = base * pct / 100
	case domain.DiscountFixed:
		amount = value
	}
	if amount < 0 {
		amount = 0
	}
	if amount > base {
		amount = base
	}
	return amount
}

func findItem(items []domain.LineItem, productID string) *domain.LineItem {
	for i := range items {
		if items[i].MenuItemID == productID {
			return &items[i]
		}
	}
	return nil
}

func containsString(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
