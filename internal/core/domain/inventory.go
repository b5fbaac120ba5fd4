package domain

import "time"

// StockCounter is a per-warehouse product counter. The only entity in this
// core that concurrent callers mutate; every successful mutation increments
// Version by exactly one and the quantity never goes negative.
type StockCounter struct {
	ProductID   string
	WarehouseID string
	Quantity    int
	Version     int // optimistic locking
	UpdatedAt   time.Time
}

// StockRequest is one requested counter mutation.
type StockRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Delta       int    `json:"delta"`
	Reason      string `json:"reason"`
}

// StockMutation is an append-only movement-log entry written alongside each
// successful counter update. Never modified after creation.
type StockMutation struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason"`
	Actor       string    `json:"actor"`
	ReferenceID string    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}
