package cart

import "github.com/shopspring/decimal"

// Shipping policy: orders above the threshold ship free, everything else pays
// a flat fee. This is the single place the rule lives; cart views, quantity
// updates, and order creation all price through QuoteTotals.
var (
	freeShippingThreshold = decimal.NewFromInt(5_000_000)
	flatShippingFee       = decimal.NewFromInt(30_000)
)

// Totals is a priced cart: subtotal, shipping fee, and their sum.
type Totals struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// ShippingFee returns the fee owed for a given subtotal.
func ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(freeShippingThreshold) {
		return decimal.Zero
	}
	return flatShippingFee
}

// QuoteTotals prices a set of cart lines.
func QuoteTotals(items []Item) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal())
	}
	fee := ShippingFee(subtotal)
	return Totals{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       subtotal.Add(fee),
	}
}

// CountItems sums line quantities, the number shown on the cart badge.
func CountItems(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
