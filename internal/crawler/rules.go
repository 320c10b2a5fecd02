package crawler

const (
	// TargetDiscountThreshold is the discount a target product must exceed
	TargetDiscountThreshold = 4.0
	// TargetPriceLimit is the price a target product must stay below
	TargetPriceLimit = 1000.0
	// HighlightDiscountThreshold is the discount above which the dashboard
	// highlights the discount cell. It is a display rule and does not take
	// the price into account.
	HighlightDiscountThreshold = 4.0
)

// CalculateDiscount returns price / (points / 10), or 0 when points is 0
func CalculateDiscount(price float64, points int) float64 {
	if points == 0 {
		return 0
	}
	return price / (float64(points) / 10)
}

// IsTarget reports whether a product is worth surfacing
func IsTarget(price, discount float64) bool {
	return discount > TargetDiscountThreshold && price < TargetPriceLimit
}

// IsHighDiscount reports whether the dashboard should highlight the discount
func IsHighDiscount(discount float64) bool {
	return discount > HighlightDiscountThreshold
}
