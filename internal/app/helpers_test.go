package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"stay_pricing/internal/domain"
	"stay_pricing/internal/storage/memory"
)

// ---- fakes ----

// jsonCache behaves like the redis cache: values go through JSON.
type jsonCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (c *jsonCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *jsonCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *jsonCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

// countingStore counts every repository call on top of the memory store.
type countingStore struct {
	*memory.Store
	calls atomic.Int32
}

func (s *countingStore) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	s.calls.Add(1)
	return s.Store.GetHotel(ctx, id)
}

func (s *countingStore) ListSeasonalRules(ctx context.Context, id int64) ([]domain.SeasonalPriceRule, error) {
	s.calls.Add(1)
	return s.Store.ListSeasonalRules(ctx, id)
}

func (s *countingStore) ListOverlappingBookings(ctx context.Context, id int64, in, out time.Time) ([]domain.Occupancy, error) {
	s.calls.Add(1)
	return s.Store.ListOverlappingBookings(ctx, id, in, out)
}

func (s *countingStore) InsertBooking(ctx context.Context, b domain.Booking) (int64, error) {
	s.calls.Add(1)
	return s.Store.InsertBooking(ctx, b)
}

func (s *countingStore) AdmitAtomically(ctx context.Context, b domain.Booking, check domain.CapacityCheck) (int64, error) {
	s.calls.Add(1)
	return s.Store.AdmitAtomically(ctx, b, check)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.BookingEvent
	err    error
}

func (n *recordingNotifier) PublishBooking(ctx context.Context, ev domain.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) published() []domain.BookingEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.BookingEvent(nil), n.events...)
}

// ---- helpers ----

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// seededStore holds hotel 1: 300/night, 2 guests per room, 50 per extra
// guest, 15% tax, 10 rooms.
func seededStore() *memory.Store {
	s := memory.New()
	_ = s.UpsertHotel(context.Background(), domain.Hotel{
		ID:                1,
		Name:              "Corniche Suites",
		BasePricePerNight: dec("300"),
		MaxGuestsPerRoom:  2,
		ExtraGuestPrice:   dec("50"),
		TaxPercentage:     dec("15"),
		TotalRooms:        10,
	})
	return s
}

func request(in, out string, rooms, adults int) domain.BookingRequest {
	return domain.BookingRequest{
		HotelID:   1,
		CheckIn:   day(in),
		CheckOut:  day(out),
		Rooms:     rooms,
		Adults:    adults,
		GuestName: "Sara Ali",
		RoomName:  "Deluxe Double",
	}
}
