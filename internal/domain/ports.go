package domain

import (
	"context"
	"strconv"
	"time"
)

type HotelRepository interface {
	// Write paths (catalog sync)
	// SaveHotel upserts h and replaces its whole seasonal rule set in one
	// transaction; on error neither is visible.
	SaveHotel(ctx context.Context, h Hotel, rules []SeasonalPriceRule) error
	LogMiss(ctx context.Context, id int64, status int, reason string) error

	// Read paths
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListSeasonalRules(ctx context.Context, hotelID int64) ([]SeasonalPriceRule, error)
}

// CapacityCheck decides, inside the admission transaction, whether the
// booking fits. It receives the hotel's inventory and the occupancies that
// overlap the requested stay.
type CapacityCheck func(inventory int, overlapping []Occupancy) error

type BookingRepository interface {
	ListOverlappingBookings(ctx context.Context, hotelID int64, checkIn, checkOut time.Time) ([]Occupancy, error)
	InsertBooking(ctx context.Context, b Booking) (int64, error)

	// AdmitAtomically re-reads capacity and inserts b in one unit of work that
	// excludes concurrent admissions for the same hotel. The booking is only
	// inserted when check returns nil.
	AdmitAtomically(ctx context.Context, b Booking, check CapacityCheck) (int64, error)
}

type CatalogClient interface {
	GetHotel(ctx context.Context, id int64) (map[string]any, error)
	GetSeasonalPrices(ctx context.Context, id int64) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Notifier interface {
	PublishBooking(ctx context.Context, ev BookingEvent) error
}

// Cache keys shared by the read path and the catalog sync evictions.
func HotelCacheKey(id int64) string   { return "hotel:" + strconv.FormatInt(id, 10) }
func SeasonsCacheKey(id int64) string { return "seasons:" + strconv.FormatInt(id, 10) }
