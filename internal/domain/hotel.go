package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Hotel struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	BasePricePerNight decimal.Decimal `json:"base_price_per_night"`
	MaxGuestsPerRoom  int             `json:"max_guests_per_room"`
	ExtraGuestPrice   decimal.Decimal `json:"extra_guest_price"`
	TaxPercentage     decimal.Decimal `json:"tax_percentage"` // 0 = no tax
	TotalRooms        int             `json:"total_rooms"`
	MealPlan          *MealPlan       `json:"meal_plan,omitempty"`
}

// DefaultMaxGuestsPerRoom applies when the stored value is missing or < 1.
const DefaultMaxGuestsPerRoom = 2

// GuestsPerRoom returns MaxGuestsPerRoom with the default applied.
func (h Hotel) GuestsPerRoom() int {
	if h.MaxGuestsPerRoom < 1 {
		return DefaultMaxGuestsPerRoom
	}
	return h.MaxGuestsPerRoom
}

type MealPlan struct {
	NameLocalized      string          `json:"name_localized"`
	MaxPersonsIncluded int             `json:"max_persons_included"`
	BasePrice          decimal.Decimal `json:"base_price"`
	ExtraMealPrice     decimal.Decimal `json:"extra_meal_price"`
}

// SeasonalPriceRule overrides a hotel's nightly rate for an inclusive date range.
type SeasonalPriceRule struct {
	ID            int64           `json:"id"`
	HotelID       int64           `json:"hotel_id"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	IsAvailable   bool            `json:"is_available"`
}

// Covers reports whether the calendar day d lies in [StartDate, EndDate].
func (r SeasonalPriceRule) Covers(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(r.StartDate)) && !d.After(Day(r.EndDate))
}

type NightlyPrice struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
	// RuleID is 0 when the base rate applied.
	RuleID int64 `json:"rule_id,omitempty"`
}
