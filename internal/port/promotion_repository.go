package port

import (
	"context"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

type PromotionRepository interface {
	// ListAutoPromotions retrieves the auto-promotions configured for an
	// outlet. Window/schedule gating happens in the engine, not here.
	ListAutoPromotions(ctx context.Context, outletID string) ([]domain.AutoPromotion, error)

	// GetManualPromotion retrieves a manual promotion by ID; nil when not found.
	GetManualPromotion(ctx context.Context, promotionID string) (*domain.ManualPromotion, error)

	// GetVoucher retrieves a voucher by code; nil when not found.
	GetVoucher(ctx context.Context, code string) (*domain.Voucher, error)

	// ListTaxCharges retrieves the active tax/service charges for an outlet.
	ListTaxCharges(ctx context.Context, outletID string) ([]domain.TaxCharge, error)
}
