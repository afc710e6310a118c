package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"stay_pricing/internal/adapters/observability"
	"stay_pricing/internal/domain"
	"stay_pricing/internal/pricing"
)

// QuoteQuery is the input of a price quotation.
type QuoteQuery struct {
	HotelID    int64
	CheckIn    time.Time
	CheckOut   time.Time
	Rooms      int
	Adults     int
	Children   int
	ExtraMeals int
}

func (q QuoteQuery) TotalGuests() int { return q.Adults + q.Children }

// Validate rejects a stay locally, before any repository call.
func (q QuoteQuery) Validate() error {
	if err := domain.ValidateRange(q.CheckIn, q.CheckOut); err != nil {
		return err
	}
	switch {
	case q.Rooms < 1:
		return fmt.Errorf("%w: rooms must be at least 1", domain.ErrInvalidRequest)
	case q.Adults < 1:
		return fmt.Errorf("%w: adults must be at least 1", domain.ErrInvalidRequest)
	case q.Children < 0:
		return fmt.Errorf("%w: children must not be negative", domain.ErrInvalidRequest)
	case q.ExtraMeals < 0:
		return fmt.Errorf("%w: extra meals must not be negative", domain.ErrInvalidRequest)
	case q.Rooms > domain.MaxRoomsPerBooking:
		return fmt.Errorf("%w: at most %d rooms per booking", domain.ErrInvalidRequest, domain.MaxRoomsPerBooking)
	case tooManyGuests(q.Rooms, q.Adults, q.Children):
		return fmt.Errorf("%w: at most %d guests per room", domain.ErrInvalidRequest, domain.MaxPartyPerRoom)
	case q.ExtraMeals > domain.MaxExtraMeals:
		return fmt.Errorf("%w: at most %d extra meals", domain.ErrInvalidRequest, domain.MaxExtraMeals)
	}
	return nil
}

// tooManyGuests expects rooms already bounded; each count is checked alone so
// a huge pair cannot wrap around when summed.
func tooManyGuests(rooms, adults, children int) bool {
	limit := rooms * domain.MaxPartyPerRoom
	return adults > limit || children > limit || adults+children > limit
}

// QuoteService reads hotel reference data through the cache and prices stays.
type QuoteService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQuoteService(r domain.HotelRepository, c domain.Cache, ttl time.Duration) *QuoteService {
	return &QuoteService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QuoteService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	key := domain.HotelCacheKey(id)
	var h domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &h); ok {
			return h, nil
		}
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, storageErr("get hotel", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	}
	return h, nil
}

func (s *QuoteService) SeasonalRules(ctx context.Context, hotelID int64) ([]domain.SeasonalPriceRule, error) {
	key := domain.SeasonsCacheKey(hotelID)
	var rules []domain.SeasonalPriceRule
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &rules); ok {
			return rules, nil
		}
	}
	rules, err := s.repo.ListSeasonalRules(ctx, hotelID)
	if err != nil {
		return nil, storageErr("list seasonal rules", err)
	}
	if s.cache != nil {
		// copy so later callers never alias the repository's backing array
		_ = s.cache.Set(ctx, key, append([]domain.SeasonalPriceRule(nil), rules...), int(s.cacheTTL.Seconds()))
	}
	return rules, nil
}

// Quote prices a stay. The hotel and its seasonal rules load in parallel.
func (s *QuoteService) Quote(ctx context.Context, q QuoteQuery) (domain.QuoteResult, error) {
	res, err := s.quote(ctx, q)
	observability.ObserveQuote(outcome(err))
	return res, err
}

func (s *QuoteService) quote(ctx context.Context, q QuoteQuery) (domain.QuoteResult, error) {
	if err := q.Validate(); err != nil {
		return domain.QuoteResult{}, err
	}

	var (
		hotel domain.Hotel
		rules []domain.SeasonalPriceRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hotel, err = s.GetHotel(gctx, q.HotelID)
		return err
	})
	g.Go(func() error {
		var err error
		rules, err = s.SeasonalRules(gctx, q.HotelID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.QuoteResult{}, err
	}

	nightly, err := pricing.ResolveNightlyPrices(hotel, rules, q.CheckIn, q.CheckOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	return pricing.ComputeTotal(pricing.QuoteInput{
		Hotel:               hotel,
		Nightly:             nightly,
		Rooms:               q.Rooms,
		TotalGuests:         q.TotalGuests(),
		ExtraMealsRequested: q.ExtraMeals,
	}), nil
}

// storageErr keeps domain errors as they are and wraps anything else.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

// outcome maps an error onto a metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidDateRange), errors.Is(err, domain.ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrDataIntegrity):
		return "data_integrity"
	default:
		return "error"
	}
}
