package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(qty int, price string, sale ...string) Item {
	it := Item{
		Quantity: qty,
		Product:  ProductSnapshot{Title: "p", Price: decimal.RequireFromString(price)},
	}
	if len(sale) > 0 {
		it.Product.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(sale[0]))
	}
	return it
}

func TestTotalPrice(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  string
	}{
		{name: "empty cart is zero", items: nil, want: "0"},
		{name: "single line", items: []Item{item(3, "19.99")}, want: "59.97"},
		{
			name:  "exact decimal sum",
			items: []Item{item(1, "0.10"), item(2, "0.20"), item(7, "0.01")},
			want:  "0.57",
		},
		{
			name:  "sale price does not change total",
			items: []Item{item(2, "100.00", "80.00"), item(1, "5.50")},
			want:  "205.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalPrice(tt.items)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestTotalSavings(t *testing.T) {
	t.Run("price minus sale price times quantity", func(t *testing.T) {
		got := TotalSavings([]Item{item(3, "100", "80")})
		assert.True(t, decimal.NewFromInt(60).Equal(got), "got %s", got)
	})

	t.Run("items without sale price are skipped", func(t *testing.T) {
		got := TotalSavings([]Item{item(3, "100", "80"), item(10, "5")})
		assert.True(t, decimal.NewFromInt(60).Equal(got), "got %s", got)
	})

	t.Run("empty cart", func(t *testing.T) {
		assert.True(t, decimal.Zero.Equal(TotalSavings(nil)))
	})
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals([]Item{item(2, "10.00", "7.50"), item(1, "3.25")})

	assert.Equal(t, 2, totals.Quantity)
	assert.Equal(t, "23.25", totals.TotalPrice.StringFixed(2))
	assert.Equal(t, "5.00", totals.TotalSavings.StringFixed(2))
}
