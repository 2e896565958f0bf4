package cart

import "github.com/shopspring/decimal"

// Totals summarizes a cart for display.
type Totals struct {
	// Quantity is the number of distinct lines in the cart.
	Quantity     int
	TotalPrice   decimal.Decimal
	TotalSavings decimal.Decimal
}

// LineTotal returns quantity × price for a single item.
func LineTotal(it Item) decimal.Decimal {
	return it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// TotalPrice returns Σ quantity × price. An empty cart totals zero.
func TotalPrice(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it))
	}
	return total
}

// TotalSavings returns Σ (price − sale_price) × quantity over items whose
// product has a sale price.
func TotalSavings(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if !it.Product.SalePrice.Valid {
			continue
		}
		diff := it.Product.Price.Sub(it.Product.SalePrice.Decimal)
		total = total.Add(diff.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// ComputeTotals builds Totals for items.
func ComputeTotals(items []Item) Totals {
	return Totals{
		Quantity:     len(items),
		TotalPrice:   TotalPrice(items),
		TotalSavings: TotalSavings(items),
	}
}
