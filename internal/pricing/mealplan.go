package pricing

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"stay_pricing/internal/domain"
	"stay_pricing/internal/shared"
)

// Alias order is authoritative: the first path holding a usable value wins,
// whatever encoding the plan arrived in.
var mealPlanAliases = map[string][]string{
	"name":        {"name_localized", "regular_ar", "name_ar", "regular", "name_en", "name"},
	"max_persons": {"max_persons_included", "max_persons", "persons_included", "max_included"},
	"base_price":  {"base_price", "price"},
	"extra_price": {"extra_meal_price", "extra_price"},
}

// NormalizeMealPlan turns any accepted meal-plan encoding into the canonical
// shape. Accepted: an object, a single-element array of objects, JSON text of
// either, or an already-typed plan. Returns nil when there is no plan.
func NormalizeMealPlan(raw any) *domain.MealPlan {
	switch v := raw.(type) {
	case nil:
		return nil
	case *domain.MealPlan:
		if v == nil {
			return nil
		}
		return clampPlan(*v)
	case domain.MealPlan:
		return clampPlan(v)
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		return normalizeJSON(v)
	case string:
		return normalizeJSON([]byte(v))
	case []any:
		if len(v) == 0 {
			return nil
		}
		if m, ok := v[0].(map[string]any); ok {
			return planFromMap(m)
		}
		return nil
	case []map[string]any:
		if len(v) == 0 {
			return nil
		}
		return planFromMap(v[0])
	case map[string]any:
		return planFromMap(v)
	}
	return nil
}

func normalizeJSON(b []byte) *domain.MealPlan {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	if _, isString := v.(string); isString {
		// a JSON string is not a plan; avoid decoding it again
		return nil
	}
	return NormalizeMealPlan(v)
}

func planFromMap(m map[string]any) *domain.MealPlan {
	if len(m) == 0 {
		return nil
	}
	var p domain.MealPlan
	p.NameLocalized = strings.TrimSpace(shared.FirstString(m, mealPlanAliases["name"]...))
	if n, ok := shared.FirstInt64(m, mealPlanAliases["max_persons"]...); ok {
		p.MaxPersonsIncluded = int(n)
	}
	p.BasePrice, _ = shared.FirstDecimal(m, mealPlanAliases["base_price"]...)
	p.ExtraMealPrice, _ = shared.FirstDecimal(m, mealPlanAliases["extra_price"]...)
	return clampPlan(p)
}

func clampPlan(p domain.MealPlan) *domain.MealPlan {
	if p.MaxPersonsIncluded < 0 {
		p.MaxPersonsIncluded = 0
	}
	p.BasePrice = nonNegative(p.BasePrice)
	p.ExtraMealPrice = nonNegative(p.ExtraMealPrice)
	return &p
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// covered returns perRoom*rooms capped at limit, without overflowing.
func covered(perRoom, rooms, limit int) int {
	if perRoom <= 0 || rooms <= 0 || limit <= 0 {
		return 0
	}
	if rooms > limit/perRoom {
		return limit
	}
	return min(perRoom*rooms, limit)
}

type ExtraMeals struct {
	RequiredPerNight int
	RequiredTotal    int
	// ChargedCount never undercuts RequiredPerNight.
	ChargedCount int
}

// ComputeExtraMeals derives how many meals beyond the plan's included persons
// the stay owes per night and in total.
func ComputeExtraMeals(plan *domain.MealPlan, rooms, totalGuests, nights, requested int) ExtraMeals {
	if plan == nil {
		return ExtraMeals{}
	}
	perNight := max(0, totalGuests-covered(plan.MaxPersonsIncluded, rooms, totalGuests))
	return ExtraMeals{
		RequiredPerNight: perNight,
		RequiredTotal:    perNight * max(0, nights),
		ChargedCount:     max(requested, perNight),
	}
}
