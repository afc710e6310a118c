package pricing

import (
	"github.com/shopspring/decimal"

	"stay_pricing/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type QuoteInput struct {
	Hotel               domain.Hotel
	Nightly             []domain.NightlyPrice
	Rooms               int
	TotalGuests         int
	ExtraMealsRequested int
}

// ComputeTotal builds the full charge breakdown for a stay. Arithmetic stays
// at full decimal precision; rounding is left to presentation.
func ComputeTotal(in QuoteInput) domain.QuoteResult {
	nights := len(in.Nightly)
	if nights <= 0 {
		return zeroQuote()
	}
	h := in.Hotel
	n := decimal.NewFromInt(int64(nights))
	rooms := decimal.NewFromInt(int64(in.Rooms))

	// avg * nights * rooms, taken from the exact sum to avoid the division's rounding
	subtotalBase := SumNightly(in.Nightly).Mul(rooms)

	extraGuests := max(0, in.TotalGuests-covered(h.GuestsPerRoom(), in.Rooms, in.TotalGuests))
	extraGuestCharge := decimal.NewFromInt(int64(extraGuests)).Mul(h.ExtraGuestPrice).Mul(n)

	meals := ComputeExtraMeals(h.MealPlan, in.Rooms, in.TotalGuests, nights, in.ExtraMealsRequested)
	extraMealCharge := decimal.Zero
	if h.MealPlan != nil && h.MealPlan.ExtraMealPrice.IsPositive() {
		extraMealCharge = decimal.NewFromInt(int64(meals.ChargedCount)).Mul(h.MealPlan.ExtraMealPrice).Mul(n)
	}

	subtotal := subtotalBase.Add(extraGuestCharge).Add(extraMealCharge)
	tax := decimal.Zero
	if h.TaxPercentage.IsPositive() {
		tax = subtotal.Mul(h.TaxPercentage).Div(hundred)
	}

	return domain.QuoteResult{
		Nights:                  nights,
		NightlyPrices:           in.Nightly,
		AverageNightlyPrice:     AverageNightlyPrice(in.Nightly),
		SubtotalBase:            subtotalBase,
		ExtraGuestsCount:        extraGuests,
		ExtraGuestCharge:        extraGuestCharge,
		ExtraMealsPerNight:      meals.ChargedCount,
		RequiredExtraMealsTotal: meals.RequiredTotal,
		ExtraMealCharge:         extraMealCharge,
		Subtotal:                subtotal,
		Tax:                     tax,
		Total:                   subtotal.Add(tax),
	}
}

func zeroQuote() domain.QuoteResult {
	return domain.QuoteResult{
		AverageNightlyPrice: decimal.Zero,
		SubtotalBase:        decimal.Zero,
		ExtraGuestCharge:    decimal.Zero,
		ExtraMealCharge:     decimal.Zero,
		Subtotal:            decimal.Zero,
		Tax:                 decimal.Zero,
		Total:               decimal.Zero,
	}
}

// Display formats a monetary value with two fraction digits for responses.
func Display(d decimal.Decimal) string { return d.StringFixed(2) }
