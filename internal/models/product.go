// internal/models/product.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	// ImageName is the logical object name in blob storage, not a URL.
	// Presentation code resolves it to a signed URL on demand.
	ImageName string    `json:"image_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
