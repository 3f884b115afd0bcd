package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hoangle-dev/storefront/internal/order"
)

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   order.Page
		want order.Page
	}{
		{
			name: "zero value gets defaults",
			in:   order.Page{},
			want: order.Page{Limit: 20, Offset: 0, Sort: "order_date", Desc: true},
		},
		{
			name: "valid sort preserved",
			in:   order.Page{Limit: 50, Offset: 10, Sort: "total_amount"},
			want: order.Page{Limit: 50, Offset: 10, Sort: "total_amount", Desc: false},
		},
		{
			name: "unknown sort falls back to newest first",
			in:   order.Page{Limit: 50, Sort: "shipping_address"},
			want: order.Page{Limit: 50, Offset: 0, Sort: "order_date", Desc: true},
		},
		{
			name: "oversized limit clamped",
			in:   order.Page{Limit: 500, Offset: -3, Sort: "status"},
			want: order.Page{Limit: 20, Offset: 0, Sort: "status", Desc: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestSortableColumn(t *testing.T) {
	assert.True(t, order.SortableColumn("order_date"))
	assert.True(t, order.SortableColumn("total_amount"))
	assert.True(t, order.SortableColumn("status"))
	assert.False(t, order.SortableColumn("shipping_address"))
	assert.False(t, order.SortableColumn(""))
}
