package cart

import (
	"github.com/gofrs/uuid"
)

// ViewLine is a cart line joined with the live product data it prices
// against. The cart itself is implicit: it is the set of lines keyed by the
// owning account.
type ViewLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	LineTotal   int64     `json:"line_total"`
	Stock       int       `json:"-"`
	Active      bool      `json:"-"`
}

// View is the authoritative cart state returned by every operation.
type View struct {
	Lines       []ViewLine `json:"lines"`
	Subtotal    int64      `json:"subtotal"`
	ShippingFee int64      `json:"shipping_fee"`
	TotalAmount int64      `json:"total_amount"`
}
