package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"stay_pricing/internal/domain"
	"stay_pricing/internal/pricing"
)

// CatalogSync imports hotel reference data from the content API into the
// hotel repository and evicts the cached copies.
type CatalogSync struct {
	catalog domain.CatalogClient
	repo    domain.HotelRepository
	cache   domain.Cache
}

func NewCatalogSync(c domain.CatalogClient, r domain.HotelRepository, cache domain.Cache) *CatalogSync {
	return &CatalogSync{catalog: c, repo: r, cache: cache}
}

// SyncHotel imports one hotel. Unknown or forbidden hotels are recorded as
// misses and are not an error; invalid seasonal rules are.
func (s *CatalogSync) SyncHotel(ctx context.Context, id int64) error {
	// 1) Hotel record first, it is the parent of the seasonal rules.
	p, err := s.catalog.GetHotel(ctx, id)
	if err != nil {
		if status, reason, ok := missOf(err); ok {
			_ = s.repo.LogMiss(ctx, id, status, reason)
			s.evict(ctx, id)
			return nil
		}
		return err
	}
	h := mapHotel(id, p)
	if h.ID != id {
		return fmt.Errorf("%w: catalog returned hotel %d for id %d", domain.ErrDataIntegrity, h.ID, id)
	}

	// 2) Seasonal prices: a hotel without any is priced at its base rate.
	raw, err := s.catalog.GetSeasonalPrices(ctx, id)
	if err != nil {
		if _, _, ok := missOf(err); !ok {
			return err
		}
		raw = nil
	}
	rules := mapSeasonalRules(id, raw)
	if err := pricing.ValidateSeasonalRules(rules); err != nil {
		_ = s.repo.LogMiss(ctx, id, 422, "seasonal rules")
		return fmt.Errorf("hotel %d: %w", id, err)
	}

	if err := s.repo.SaveHotel(ctx, h, rules); err != nil {
		return fmt.Errorf("save hotel %d: %w", id, err)
	}
	s.evict(ctx, id)

	log.Debug().Int64("id", id).Int("rules", len(rules)).Bool("meal_plan", h.MealPlan != nil).Msg("hotel synced")
	return nil
}

func (s *CatalogSync) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, domain.HotelCacheKey(id))
	_ = s.cache.Del(ctx, domain.SeasonsCacheKey(id))
}

// missOf classifies 404 and 401/403 answers as catalog misses.
func missOf(err error) (status int, reason string, ok bool) {
	low := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found"):
		return 404, "not found", true
	case strings.Contains(low, "403") || strings.Contains(low, "forbidden") ||
		strings.Contains(low, "401") || strings.Contains(low, "unauthorized"):
		return 403, "inactive", true
	}
	return 0, "", false
}
