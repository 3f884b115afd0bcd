package order

import (
	"time"

	"github.com/gofrs/uuid"
)

// Status is the single canonical status vocabulary. Localized display
// strings are a presentation concern and never appear in logic.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusShipping   Status = "SHIPPING"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Line is a frozen (product, quantity, unit price) triple. The unit price is
// captured at order time and never changes afterwards, whatever happens to
// the live product price.
type Line struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is an immutable-at-creation snapshot of a checked-out cart. Only
// status, cancel reason and shipper assignment ever change after creation.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	ShipperID       *uuid.UUID `json:"shipper_id,omitempty"`
	Status          Status     `json:"status"`
	ShippingAddress string     `json:"shipping_address"`
	Note            string     `json:"note,omitempty"`
	CancelReason    *string    `json:"cancel_reason,omitempty"`
	Lines           []Line     `json:"lines"`
	Subtotal        int64      `json:"subtotal"`
	ShippingFee     int64      `json:"shipping_fee"`
	TotalAmount     int64      `json:"total_amount"`
	OrderDate       time.Time  `json:"order_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Filter narrows List results. Nil/zero values mean no constraint. Search
// matches the shipping address and the order id as free text.
type Filter struct {
	Status     *Status
	CustomerID *uuid.UUID
	ShipperID  *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
	MinTotal   *int64
	MaxTotal   *int64
	Search     string
}

// sortColumns whitelists the ORDER BY targets for List so user input never
// reaches the SQL directly.
var sortColumns = map[string]string{
	"order_date":   "order_date",
	"total_amount": "total_amount",
	"status":       "status",
}

// SortableColumn reports whether name is an accepted List sort key.
func SortableColumn(name string) bool {
	_, ok := sortColumns[name]
	return ok
}

type Page struct {
	Limit  int
	Offset int
	Sort   string
	Desc   bool
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if !SortableColumn(p.Sort) {
		p.Sort = "order_date"
		p.Desc = true
	}
	return p
}
