package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stay_pricing/internal/domain"
)

// ResolveNightlyPrices returns one price per night of [checkIn, checkOut).
// A night takes the price of the active seasonal rule of this hotel covering
// it, or the hotel's base rate when no rule does. Two active rules covering
// the same night is reported as a data integrity violation.
func ResolveNightlyPrices(h domain.Hotel, rules []domain.SeasonalPriceRule, checkIn, checkOut time.Time) ([]domain.NightlyPrice, error) {
	if err := domain.ValidateRange(checkIn, checkOut); err != nil {
		return nil, err
	}

	active := make([]domain.SeasonalPriceRule, 0, len(rules))
	for _, r := range rules {
		if r.HotelID == h.ID && r.IsAvailable {
			active = append(active, r)
		}
	}

	out := make([]domain.NightlyPrice, 0, domain.Nights(checkIn, checkOut))
	var err error
	domain.EachNight(checkIn, checkOut, func(night time.Time) {
		if err != nil {
			return
		}
		np := domain.NightlyPrice{Date: night, Price: h.BasePricePerNight}
		var hit *domain.SeasonalPriceRule
		for i := range active {
			if !active[i].Covers(night) {
				continue
			}
			if hit != nil {
				err = &domain.OverlappingRulesError{
					HotelID: h.ID, First: hit.ID, Second: active[i].ID,
					Night: night.Format(domain.DateLayout),
				}
				return
			}
			hit = &active[i]
		}
		if hit != nil {
			np.Price = hit.PricePerNight
			np.RuleID = hit.ID
		}
		out = append(out, np)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SumNightly adds up the resolved nightly prices.
func SumNightly(nightly []domain.NightlyPrice) decimal.Decimal {
	sum := decimal.Zero
	for _, n := range nightly {
		sum = sum.Add(n.Price)
	}
	return sum
}

// AverageNightlyPrice is the arithmetic mean of the resolved nightly prices,
// so a stay straddling seasons averages across them.
func AverageNightlyPrice(nightly []domain.NightlyPrice) decimal.Decimal {
	if len(nightly) == 0 {
		return decimal.Zero
	}
	return SumNightly(nightly).Div(decimal.NewFromInt(int64(len(nightly))))
}

// ValidateSeasonalRules checks a rule set before it is stored: well-formed
// ranges, non-negative prices, and no overlapping active ranges per hotel.
func ValidateSeasonalRules(rules []domain.SeasonalPriceRule) error {
	byHotel := make(map[int64][]domain.SeasonalPriceRule)
	for _, r := range rules {
		if domain.Day(r.EndDate).Before(domain.Day(r.StartDate)) {
			return fmt.Errorf("%w: seasonal rule %d ends %s before it starts %s", domain.ErrDataIntegrity,
				r.ID, r.EndDate.Format(domain.DateLayout), r.StartDate.Format(domain.DateLayout))
		}
		if r.PricePerNight.IsNegative() {
			return fmt.Errorf("%w: seasonal rule %d has negative price %s", domain.ErrDataIntegrity, r.ID, r.PricePerNight)
		}
		if r.IsAvailable {
			byHotel[r.HotelID] = append(byHotel[r.HotelID], r)
		}
	}

	for hotelID, rs := range byHotel {
		sort.Slice(rs, func(i, j int) bool { return rs[i].StartDate.Before(rs[j].StartDate) })
		reach := rs[0]
		for _, r := range rs[1:] {
			if !domain.Day(r.StartDate).After(domain.Day(reach.EndDate)) {
				return &domain.OverlappingRulesError{
					HotelID: hotelID, First: reach.ID, Second: r.ID,
					Night: domain.Day(r.StartDate).Format(domain.DateLayout),
				}
			}
			if r.EndDate.After(reach.EndDate) {
				reach = r
			}
		}
	}
	return nil
}
