package engine

import (
	"math"

	"github.com/mverot/dealdesk/validation"
)

// PricingInput carries resolved unit prices; references are resolved by the
// caller against the catalog before pricing.
type PricingInput struct {
	UnitPrice       float64
	Seats           int
	AddOnPrices     []float64
	DiscountPercent float64
}

type Pricing struct {
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

// ComputePricing returns subtotal and discounted total, each rounded to two
// decimals at the end only, so per-term rounding cannot drift the total.
func ComputePricing(in PricingInput) (Pricing, error) {
	v := validation.Violations{}
	validation.MinInt("seats", in.Seats, 1, v)
	validation.RangeFloat("discountPercent", in.DiscountPercent, 0, 100, v)
	if !v.Empty() {
		return Pricing{}, newValidationError(v)
	}
	subtotal := in.UnitPrice * float64(in.Seats)
	for _, p := range in.AddOnPrices {
		subtotal += p
	}
	total := subtotal * (1 - in.DiscountPercent/100)
	return Pricing{Subtotal: round2(subtotal), Total: round2(total)}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
