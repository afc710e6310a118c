package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"

	redisad "stay_pricing/internal/adapters/redis"
	"stay_pricing/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_RoundTripKeepsDecimals(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	h := domain.Hotel{
		ID:                7,
		Name:              "Harbour View",
		BasePricePerNight: decimal.RequireFromString("312.345678"),
		TaxPercentage:     decimal.RequireFromString("15"),
		TotalRooms:        12,
		MealPlan:          &domain.MealPlan{MaxPersonsIncluded: 2, ExtraMealPrice: decimal.RequireFromString("17.5")},
	}
	if err := c.Set(ctx, domain.HotelCacheKey(7), h, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("stay:hotel:7") {
		t.Fatalf("expected prefixed key in redis, have %v", mr.Keys())
	}

	var got domain.Hotel
	ok, err := c.Get(ctx, domain.HotelCacheKey(7), &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !got.BasePricePerNight.Equal(h.BasePricePerNight) || got.MealPlan == nil || !got.MealPlan.ExtraMealPrice.Equal(h.MealPlan.ExtraMealPrice) {
		t.Fatalf("decimal precision lost: %+v", got)
	}
}

func TestCache_MissTTLAndDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var dst []domain.SeasonalPriceRule
	if ok, err := c.Get(ctx, domain.SeasonsCacheKey(1), &dst); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, domain.SeasonsCacheKey(1), []domain.SeasonalPriceRule{{ID: 1, HotelID: 1}}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)
	if ok, _ := c.Get(ctx, domain.SeasonsCacheKey(1), &dst); ok {
		t.Fatalf("expected expiry after ttl")
	}

	_ = c.Set(ctx, domain.SeasonsCacheKey(1), []domain.SeasonalPriceRule{{ID: 1}}, 30)
	if err := c.Del(ctx, domain.SeasonsCacheKey(1)); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, domain.SeasonsCacheKey(1), &dst); ok {
		t.Fatalf("expected miss after del")
	}
}

func TestCache_Ping(t *testing.T) {
	c, mr := newCache(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error after server shutdown")
	}
}
