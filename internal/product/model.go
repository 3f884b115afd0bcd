package product

import (
	"time"

	"github.com/gofrs/uuid"
)

type Product struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Price      int64      `json:"price"` // minor currency units
	Stock      int        `json:"stock"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Active     bool       `json:"active"`
	Images     []string   `json:"images"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
}

type Page struct {
	Limit  int
	Offset int
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
