// Package memory is an in-process HotelRepository and BookingRepository used
// by tests and by the api binary when no MYSQL_DSN is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stay_pricing/internal/domain"
)

type Store struct {
	mu       sync.Mutex
	hotels   map[int64]domain.Hotel
	rules    map[int64][]domain.SeasonalPriceRule
	bookings []domain.Booking
	misses   map[int64]int
	nextRule int64
	nextID   int64
}

func New() *Store {
	return &Store{
		hotels: map[int64]domain.Hotel{},
		rules:  map[int64][]domain.SeasonalPriceRule{},
		misses: map[int64]int{},
	}
}

func (s *Store) UpsertHotel(_ context.Context, h domain.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putHotel(h)
	return nil
}

func (s *Store) ReplaceSeasonalRules(_ context.Context, hotelID int64, rules []domain.SeasonalPriceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putRules(hotelID, rules)
	return nil
}

// SaveHotel writes the hotel and its rules under one lock.
func (s *Store) SaveHotel(_ context.Context, h domain.Hotel, rules []domain.SeasonalPriceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putHotel(h)
	s.putRules(h.ID, rules)
	return nil
}

func (s *Store) putHotel(h domain.Hotel) {
	h.MaxGuestsPerRoom = h.GuestsPerRoom()
	s.hotels[h.ID] = h
}

func (s *Store) putRules(hotelID int64, rules []domain.SeasonalPriceRule) {
	out := make([]domain.SeasonalPriceRule, 0, len(rules))
	for _, r := range rules {
		s.nextRule++
		r.ID = s.nextRule
		r.HotelID = hotelID
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	s.rules[hotelID] = out
}

func (s *Store) LogMiss(_ context.Context, id int64, status int, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses[id] = status
	return nil
}

// Misses returns the catalog ids recorded as missing with their HTTP status.
func (s *Store) Misses() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int, len(s.misses))
	for k, v := range s.misses {
		out[k] = v
	}
	return out
}

func (s *Store) GetHotel(_ context.Context, id int64) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *Store) ListSeasonalRules(_ context.Context, hotelID int64) ([]domain.SeasonalPriceRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SeasonalPriceRule(nil), s.rules[hotelID]...), nil
}

func (s *Store) ListOverlappingBookings(_ context.Context, hotelID int64, checkIn, checkOut time.Time) ([]domain.Occupancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlapping(hotelID, checkIn, checkOut), nil
}

func (s *Store) InsertBooking(_ context.Context, b domain.Booking) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(b), nil
}

// AdmitAtomically holds the store lock across the capacity check and the insert.
func (s *Store) AdmitAtomically(_ context.Context, b domain.Booking, check domain.CapacityCheck) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[b.HotelID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if err := check(h.TotalRooms, s.overlapping(b.HotelID, b.CheckIn, b.CheckOut)); err != nil {
		return 0, err
	}
	return s.insert(b), nil
}

// Bookings returns a copy of every stored booking.
func (s *Store) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Booking(nil), s.bookings...)
}

func (s *Store) overlapping(hotelID int64, checkIn, checkOut time.Time) []domain.Occupancy {
	var out []domain.Occupancy
	for _, b := range s.bookings {
		if b.HotelID != hotelID || !b.Status.Occupies() {
			continue
		}
		o := domain.Occupancy{CheckIn: b.CheckIn, CheckOut: b.CheckOut, Rooms: b.Rooms}
		if o.Overlaps(checkIn, checkOut) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Store) insert(b domain.Booking) int64 {
	s.nextID++
	b.ID = s.nextID
	s.bookings = append(s.bookings, b)
	return b.ID
}
