package app

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"stay_pricing/internal/domain"
	"stay_pricing/internal/pricing"
	"stay_pricing/internal/shared"
)

/********** alias registries (single source of truth) **********/

var hotelAliases = map[string][]string{
	"id":          {"hotel_id", "id"},
	"name":        {"name", "hotel_name", "name_en", "name_ar"},
	"base_price":  {"base_price_per_night", "price_per_night", "base_price", "price"},
	"max_guests":  {"max_guests_per_room", "max_guests", "capacity_per_room"},
	"extra_guest": {"extra_guest_price", "extra_person_price", "extra_bed_price"},
	"tax":         {"tax_percentage", "tax_percent", "vat_percentage", "tax"},
	"rooms":       {"total_rooms", "rooms_count", "number_of_rooms", "inventory.rooms"},
	"meal_plan":   {"meal_plan", "mealPlan", "meal_plans", "board"},
}

var seasonAliases = map[string][]string{
	"id":        {"id", "rule_id"},
	"start":     {"start_date", "from", "date_from", "start"},
	"end":       {"end_date", "to", "date_to", "end"},
	"price":     {"price_per_night", "price", "nightly_price"},
	"available": {"is_available", "available", "active", "is_active"},
}

/********** hotel mapper **********/

func mapHotel(fallbackID int64, p map[string]any) domain.Hotel {
	h := domain.Hotel{ID: fallbackID}
	if id, ok := shared.FirstInt64(p, hotelAliases["id"]...); ok && id > 0 {
		h.ID = id
	}
	h.Name = shared.FirstString(p, hotelAliases["name"]...)
	h.BasePricePerNight = nonNegative(shared.FirstDecimal(p, hotelAliases["base_price"]...))
	h.ExtraGuestPrice = nonNegative(shared.FirstDecimal(p, hotelAliases["extra_guest"]...))
	h.TaxPercentage = nonNegative(shared.FirstDecimal(p, hotelAliases["tax"]...))
	if n, ok := shared.FirstInt64(p, hotelAliases["max_guests"]...); ok {
		h.MaxGuestsPerRoom = int(n)
	}
	h.MaxGuestsPerRoom = h.GuestsPerRoom()
	if n, ok := shared.FirstInt64(p, hotelAliases["rooms"]...); ok && n > 0 {
		h.TotalRooms = int(n)
	}
	for _, path := range hotelAliases["meal_plan"] {
		if raw := shared.LookupAny(p, path); raw != nil {
			h.MealPlan = pricing.NormalizeMealPlan(raw)
			break
		}
	}
	return h
}

/********** seasonal rules mapper **********/

// mapSeasonalRules drops entries without usable dates or price; those are
// logged and never guessed.
func mapSeasonalRules(hotelID int64, in []map[string]any) []domain.SeasonalPriceRule {
	out := make([]domain.SeasonalPriceRule, 0, len(in))
	for i, r := range in {
		start, okStart := shared.FirstDate(r, seasonAliases["start"]...)
		end, okEnd := shared.FirstDate(r, seasonAliases["end"]...)
		price, okPrice := shared.FirstDecimal(r, seasonAliases["price"]...)
		if !okStart || !okEnd || !okPrice {
			log.Warn().Int64("hotel_id", hotelID).Int("index", i).
				Str("context", "mapSeasonalRules").
				Msg("seasonal price without dates or price, skipped")
			continue
		}

		rule := domain.SeasonalPriceRule{
			ID:            int64(i + 1),
			HotelID:       hotelID,
			StartDate:     start,
			EndDate:       end,
			PricePerNight: price,
			IsAvailable:   true,
		}
		if id, ok := shared.FirstInt64(r, seasonAliases["id"]...); ok && id > 0 {
			rule.ID = id
		}
		if avail, ok := shared.FirstBool(r, seasonAliases["available"]...); ok {
			rule.IsAvailable = avail
		}
		out = append(out, rule)
	}
	return out
}

func nonNegative(d decimal.Decimal, _ bool) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
