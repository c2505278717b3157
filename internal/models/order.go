// internal/models/order.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        int             `json:"id"`
	UserID    int             `json:"user_id"`
	Status    OrderStatus     `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`

	// Items are reconstructed at read time from the order_items
	// collection; they are never persisted inside the order document.
	Items []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID        int `json:"id"`
	OrderID   int `json:"order_id"`
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
	// UnitPrice is the price captured when the order was placed. It is
	// immutable once written and must never be recomputed from the
	// current catalog price.
	UnitPrice decimal.Decimal `json:"unit_price"`

	// Product is resolved at read time. ProductMissing is set instead of
	// failing the read when the referenced product has been deleted.
	Product        *Product `json:"product,omitempty"`
	ProductMissing bool     `json:"product_missing,omitempty"`
}
