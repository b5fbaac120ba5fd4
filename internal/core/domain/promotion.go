package domain

import "time"

// PromoType is the evaluation strategy of an automatic promotion.
type PromoType string

const (
	PromoTotalThreshold    PromoType = "total_threshold"
	PromoQuantityThreshold PromoType = "quantity_threshold"
	PromoProductSpecific   PromoType = "product_specific"
	PromoBundle            PromoType = "bundle"
	PromoBuyXGetY          PromoType = "buy_x_get_y"
	PromoManual            PromoType = "manual"
	PromoVoucher           PromoType = "voucher"
)

// DiscountKind distinguishes percentage discounts from fixed amounts.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// BundleComponent is one required product of a bundle promotion.
type BundleComponent struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PromoConditions carries the type-specific parameters of an auto-promotion.
// Stored as a JSON document by the storage adapter.
type PromoConditions struct {
	MinQuantity      int               `json:"min_quantity,omitempty"`
	MinTotal         Money             `json:"min_total,omitempty"`
	ProductIDs       []string          `json:"product_ids,omitempty"`
	BundleComponents []BundleComponent `json:"bundle_components,omitempty"`
	BundlePrice      Money             `json:"bundle_price,omitempty"`
	BuyProductID     string            `json:"buy_product_id,omitempty"`
	MinBuyQuantity   int               `json:"min_buy_quantity,omitempty"`
	GetProductID     string            `json:"get_product_id,omitempty"`
}

// ActiveHours is a weekly active-hours window. Start and End are minutes
// from midnight; End < Start means the window crosses midnight.
type ActiveHours struct {
	Day   time.Weekday `json:"day"`
	Start int          `json:"start"`
	End   int          `json:"end"`
}

// Contains reports whether t falls inside the window.
func (h ActiveHours) Contains(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	if h.End < h.Start {
		// crosses midnight: the tail belongs to the previous day's window
		if t.Weekday() == h.Day && minute >= h.Start {
			return true
		}
		next := (h.Day + 1) % 7
		return t.Weekday() == next && minute < h.End
	}
	return t.Weekday() == h.Day && minute >= h.Start && minute < h.End
}

// AutoPromotion is a discount rule applied automatically when its conditions
// are met. Read-only input to the discount engine.
type AutoPromotion struct {
	ID            string
	Name          string
	Type          PromoType
	Kind          DiscountKind
	Value         Money // percent for DiscountPercentage, amount for DiscountFixed
	Conditions    PromoConditions
	ValidFrom     time.Time
	ValidTo       time.Time
	Schedule      []ActiveHours // empty means always active inside the window
	ConsumerTypes []string      // empty means all consumer types
}

// ActiveAt reports whether the promotion may apply at t for the given
// consumer type.
func (p *AutoPromotion) ActiveAt(t time.Time, consumerType string) bool {
	if t.Before(p.ValidFrom) || t.After(p.ValidTo) {
		return false
	}
	if len(p.ConsumerTypes) > 0 {
		matched := false
		for _, ct := range p.ConsumerTypes {
			if ct == consumerType {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(p.Schedule) == 0 {
		return true
	}
	for _, h := range p.Schedule {
		if h.Contains(t) {
			return true
		}
	}
	return false
}

// ManualPromotion is a staff-selected discount applied at checkout time.
type ManualPromotion struct {
	ID        string
	Name      string
	Kind      DiscountKind
	Value     Money
	ValidFrom time.Time
	ValidTo   time.Time
	OutletIDs []string // empty means all outlets
}

// ValidFor reports whether the promotion is usable at t for the outlet.
func (p *ManualPromotion) ValidFor(t time.Time, outletID string) bool {
	if t.Before(p.ValidFrom) || t.After(p.ValidTo) {
		return false
	}
	return outletMatch(p.OutletIDs, outletID)
}

// Voucher is a code-redeemable discount with finite quota. The quota is
// decremented externally on redemption.
type Voucher struct {
	Code      string
	Name      string
	Kind      DiscountKind
	Value     Money
	ValidFrom time.Time
	ValidTo   time.Time
	OutletIDs []string
	Quota     int
}

// ValidFor reports whether the voucher is redeemable at t for the outlet.
func (v *Voucher) ValidFor(t time.Time, outletID string) bool {
	if t.Before(v.ValidFrom) || t.After(v.ValidTo) {
		return false
	}
	if v.Quota <= 0 {
		return false
	}
	return outletMatch(v.OutletIDs, outletID)
}

func outletMatch(ids []string, outletID string) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if id == outletID {
			return true
		}
	}
	return false
}
