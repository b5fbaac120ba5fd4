package domain

import "time"

// OrderPricedEvent is emitted after an order has been priced and its stock
// reserved. Delivery is fire-and-forget; consumers must tolerate loss.
type OrderPricedEvent struct {
	OrderID    string    `json:"order_id"`
	OutletID   string    `json:"outlet_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	GrandTotal Money     `json:"grand_total"`
	Mutations  int       `json:"mutations"`
	PricedAt   time.Time `json:"priced_at"`
}
