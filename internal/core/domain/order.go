package domain

// Money is a monetary value in minor currency units.
type Money = int64

// OrderChannel identifies where an order originated. Manual promotions and
// vouchers are restricted to authenticated staff/app channels.
type OrderChannel string

const (
	ChannelCashier     OrderChannel = "cashier"
	ChannelApp         OrderChannel = "app"
	ChannelSelfService OrderChannel = "self_service"
)

// Authenticated reports whether the channel is a staff/app channel that may
// carry manual promotions and vouchers.
func (c OrderChannel) Authenticated() bool {
	return c == ChannelCashier || c == ChannelApp
}

// ItemRequest is one requested order line before resolution.
type ItemRequest struct {
	MenuItemID     string   `json:"menu_item_id"`
	Quantity       int      `json:"quantity"`
	ToppingIDs     []string `json:"topping_ids"`
	AddonOptionIDs []string `json:"addon_option_ids"`
	Notes          string   `json:"notes"`
}

// PriceOrderRequest is the core-facing input contract.
type PriceOrderRequest struct {
	OrderID           string             `json:"order_id"`
	OutletID          string             `json:"outlet_id"`
	Channel           OrderChannel       `json:"order_channel"`
	CustomerID        string             `json:"customer_id,omitempty"`
	ConsumerType      string             `json:"consumer_type,omitempty"`
	ManualPromotionID string             `json:"manual_promotion_id,omitempty"`
	VoucherCode       string             `json:"voucher_code,omitempty"`
	LoyaltyPoints     int                `json:"loyalty_points_to_redeem,omitempty"`
	Items             []ItemRequest      `json:"items"`
	CustomAmountItems []CustomAmountItem `json:"custom_amount_items,omitempty"`
}

// SelectedModifier is a priced topping or addon option snapshot on a line item.
type SelectedModifier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// LineItem is a priced order line. Immutable once produced by the resolver;
// re-pricing means re-resolving.
type LineItem struct {
	MenuItemID string             `json:"menu_item_id"`
	Name       string             `json:"name"`
	Category   string             `json:"category"`
	UnitPrice  Money              `json:"unit_price"`
	Quantity   int                `json:"quantity"`
	Toppings   []SelectedModifier `json:"toppings,omitempty"`
	Addons     []SelectedModifier `json:"addons,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	Subtotal   Money              `json:"subtotal"`
}

// CustomAmountItem is a manual monetary adjustment. It participates in the
// subtotal and tax scoping like a line item but has no stock effect.
type CustomAmountItem struct {
	Amount Money  `json:"amount"`
	Label  string `json:"label"`
}

// AppliedPromotion is one entry of the itemized discount breakdown.
type AppliedPromotion struct {
	PromotionID string    `json:"promotion_id"`
	Name        string    `json:"name"`
	Type        PromoType `json:"type"`
	Amount      Money     `json:"amount"`
}

// DiscountSummary aggregates the discount figures on a priced order.
type DiscountSummary struct {
	Auto    Money `json:"auto"`
	Manual  Money `json:"manual"`
	Voucher Money `json:"voucher"`
	Loyalty Money `json:"loyalty"`
	Total   Money `json:"total"`
}

// TaxLine is one computed tax or service-fee charge.
type TaxLine struct {
	ChargeID string     `json:"charge_id"`
	Name     string     `json:"name"`
	Kind     ChargeKind `json:"kind"`
	Base     Money      `json:"base"`
	Amount   Money      `json:"amount"`
}

// LoyaltySummary reports the loyalty movements of a priced order.
type LoyaltySummary struct {
	PointsRedeemed int    `json:"points_redeemed"`
	PointsEarned   int    `json:"points_earned"`
	NewBalance     int    `json:"new_balance"`
	Tier           string `json:"tier"`
}

// PricedOrder is the core-facing output contract.
type PricedOrder struct {
	OrderID                string             `json:"order_id"`
	OutletID               string             `json:"outlet_id"`
	LineItems              []LineItem         `json:"line_items"`
	CustomAmountItems      []CustomAmountItem `json:"custom_amount_items,omitempty"`
	SubtotalBeforeDiscount Money              `json:"subtotal_before_discount"`
	Discounts              DiscountSummary    `json:"discounts"`
	AppliedPromotions      []AppliedPromotion `json:"applied_promotions,omitempty"`
	TaxLines               []TaxLine          `json:"tax_lines,omitempty"`
	TotalTax               Money              `json:"total_tax"`
	TotalServiceFee        Money              `json:"total_service_fee"`
	GrandTotal             Money              `json:"grand_total"`
	Loyalty                LoyaltySummary     `json:"loyalty"`
	StockMutations         []StockMutation    `json:"stock_mutations,omitempty"`
}
