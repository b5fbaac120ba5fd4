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

const saleMovementReason = "order_sale"

// PricingService sequences the pricing pipeline:
// resolve -> redeem loyalty -> discounts -> tax -> accrue loyalty -> reserve.
// Any stage failure aborts the pipeline; no partial monetary result is
// returned. Loyalty stages are fail-open by business rule.
type PricingService struct {
	resolver  *PriceResolver
	discounts *DiscountEngine
	taxes     *TaxEngine
	loyalty   *LoyaltyLedger
	stock     *StockLedger
	catalog   port.CatalogRepository
	events    port.EventPublisher
	logger    *zap.Logger
}

func NewPricingService(
	resolver *PriceResolver,
	discounts *DiscountEngine,
	taxes *TaxEngine,
	loyalty *LoyaltyLedger,
	stock *StockLedger,
	catalog port.CatalogRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		resolver:  resolver,
		discounts: discounts,
		taxes:     taxes,
		loyalty:   loyalty,
		stock:     stock,
		catalog:   catalog,
		events:    events,
		logger:    logger,
	}
}

// PriceOrder computes every monetary figure of the order and reserves the
// stock its recipes consume.
func (s *PricingService) PriceOrder(ctx context.Context, req domain.PriceOrderRequest) (*domain.PricedOrder, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	lines := make([]domain.LineItem, 0, len(req.Items))
	var subtotal domain.Money
	for _, ir := range req.Items {
		line, err := s.resolver.Resolve(ctx, ir)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		subtotal += line.Subtotal
	}
	for _, ca := range req.CustomAmountItems {
		subtotal += ca.Amount
	}

	redeemed := s.loyalty.Redeem(ctx, req.CustomerID, req.LoyaltyPoints, req.OrderID, req.OutletID, subtotal)

	discounts, err := s.discounts.Apply(ctx, DiscountInput{
		OutletID:          req.OutletID,
		Channel:           req.Channel,
		ConsumerType:      req.ConsumerType,
		ManualPromotionID: req.ManualPromotionID,
		VoucherCode:       req.VoucherCode,
		Items:             lines,
		Remaining:         subtotal - redeemed.Discount,
	})
	if err != nil {
		return nil, err
	}

	taxes, err := s.taxes.Compute(ctx, TaxInput{
		OutletID:          req.OutletID,
		Items:             lines,
		CustomAmountItems: req.CustomAmountItems,
		DiscountedTotal:   discounts.Remaining,
	})
	if err != nil {
		return nil, err
	}

	accrued := s.loyalty.Accrue(ctx, discounts.Remaining, req.CustomerID, req.OrderID, req.OutletID)

	stockReqs, err := s.expandRecipes(ctx, lines)
	if err != nil {
		return nil, err
	}
	mutations, err := s.stock.ReserveAll(ctx, req.OrderID, string(req.Channel), stockReqs)
	if err != nil {
		return nil, err
	}

	order := &domain.PricedOrder{
		OrderID:                req.OrderID,
		OutletID:               req.OutletID,
		LineItems:              lines,
		CustomAmountItems:      req.CustomAmountItems,
		SubtotalBeforeDiscount: subtotal,
		Discounts: domain.DiscountSummary{
			Auto:    discounts.Auto,
			Manual:  discounts.Manual,
			Voucher: discounts.Voucher,
			Loyalty: redeemed.Discount,
			Total:   discounts.Total + redeemed.Discount,
		},
		AppliedPromotions: discounts.Applied,
		TaxLines:          taxes.Lines,
		TotalTax:          taxes.TotalTax,
		TotalServiceFee:   taxes.TotalServiceFee,
		GrandTotal:        discounts.Remaining + taxes.TotalTax + taxes.TotalServiceFee,
		Loyalty:           mergeLoyalty(redeemed, accrued),
		StockMutations:    mutations,
	}

	s.events.PublishOrderPriced(ctx, domain.OrderPricedEvent{
		OrderID:    order.OrderID,
		OutletID:   order.OutletID,
		CustomerID: req.CustomerID,
		GrandTotal: order.GrandTotal,
		Mutations:  len(mutations),
		PricedAt:   time.Now().UTC(),
	})

	return order, nil
}

// expandRecipes maps priced lines to the stocked components they consume,
// aggregating deltas per product/warehouse pair. Lines without a recipe have
// no stock effect.
func (s *PricingService) expandRecipes(ctx context.Context, lines []domain.LineItem) ([]domain.StockRequest, error) {
	type key struct{ product, warehouse string }
	totals := make(map[key]int)
	var order []key

	for _, line := range lines {
		recipe, err := s.catalog.GetRecipe(ctx, line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("recipe lookup: %w", err)
		}
		if recipe == nil {
			continue
		}
		for _, comp := range recipe.Components {
			k := key{comp.ProductID, comp.WarehouseID}
			if _, seen := totals[k]; !seen {
				order = append(order, k)
			}
			totals[k] -= comp.Quantity * line.Quantity
		}
	}

	reqs := make([]domain.StockRequest, 0, len(order))
	for _, k := range order {
		reqs = append(reqs, domain.StockRequest{
			ProductID:   k.product,
			WarehouseID: k.warehouse,
			Delta:       totals[k],
			Reason:      saleMovementReason,
		})
	}
	return reqs, nil
}

func validateRequest(req *domain.PriceOrderRequest) error {
	if req.OutletID == "" {
		return fmt.Errorf("%w: outlet id is required", domain.ErrValidation)
	}
	if len(req.Items) == 0 && len(req.CustomAmountItems) == 0 {
		return fmt.Errorf("%w: order is empty", domain.ErrValidation)
	}
	switch req.Channel {
	case domain.ChannelCashier, domain.ChannelApp, domain.ChannelSelfService:
	default:
		return fmt.Errorf("%w: unknown order channel %q", domain.ErrValidation, req.Channel)
	}
	if req.LoyaltyPoints < 0 {
		return fmt.Errorf("%w: loyalty points must not be negative", domain.ErrValidation)
	}
	if req.OrderID == "" {
		req.OrderID = uuid.NewString()
	}
	return nil
}

func mergeLoyalty(redeemed RedeemResult, accrued AccrueResult) domain.LoyaltySummary {
	summary := domain.LoyaltySummary{
		PointsRedeemed: redeemed.PointsRedeemed,
		PointsEarned:   accrued.PointsEarned,
		NewBalance:     redeemed.NewBalance,
		Tier:           redeemed.Tier,
	}
	if accrued.PointsEarned > 0 || accrued.NewBalance > 0 {
		summary.NewBalance = accrued.NewBalance
	}
	if accrued.Tier != "" {
		summary.Tier = accrued.Tier
	}
	return summary
}
