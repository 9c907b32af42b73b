package domain

// Pricing constants. Amounts are integer currency units; the service is
// currency agnostic.
const (
	// DeliveryFee is the flat fee added to every order.
	DeliveryFee int64 = 40
	// TaxRatePercent is the tax rate applied to the subtotal.
	TaxRatePercent int64 = 5
)

// PricingBreakdown captures the monetary results of pricing a cart.
type PricingBreakdown struct {
	Subtotal    int64
	DeliveryFee int64
	Tax         int64
	Total       int64
}

// Tax computes the order tax for a subtotal: 5% rounded half up.
func Tax(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return (subtotal*TaxRatePercent + 50) / 100
}

// PriceOrder derives the full pricing breakdown for a subtotal.
func PriceOrder(subtotal int64) PricingBreakdown {
	tax := Tax(subtotal)
	return PricingBreakdown{
		Subtotal:    subtotal,
		DeliveryFee: DeliveryFee,
		Tax:         tax,
		Total:       subtotal + DeliveryFee + tax,
	}
}

// CartSubtotal sums line totals over priced cart items.
func CartSubtotal(items []PricedCartItem) int64 {
	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotal
	}
	return subtotal
}
