package availability

import (
	"context"
	"fmt"
	"time"

	"stay_pricing/internal/domain"
)

type HotelReader interface {
	GetHotel(ctx context.Context, id int64) (domain.Hotel, error)
}

type OccupancyLister interface {
	ListOverlappingBookings(ctx context.Context, hotelID int64, checkIn, checkOut time.Time) ([]domain.Occupancy, error)
}

// Gate answers whether rooms are free for a hotel across a stay.
type Gate struct {
	hotels   HotelReader
	bookings OccupancyLister
}

func NewGate(h HotelReader, b OccupancyLister) *Gate {
	return &Gate{hotels: h, bookings: b}
}

func (g *Gate) AvailableRoomCount(ctx context.Context, hotelID int64, checkIn, checkOut time.Time) (int, error) {
	if err := domain.ValidateRange(checkIn, checkOut); err != nil {
		return 0, err
	}
	h, err := g.hotels.GetHotel(ctx, hotelID)
	if err != nil {
		return 0, err
	}
	occ, err := g.bookings.ListOverlappingBookings(ctx, hotelID, checkIn, checkOut)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "list overlapping bookings", Err: err}
	}
	return Remaining(h.TotalRooms, checkIn, checkOut, occ), nil
}

func (g *Gate) IsAvailable(ctx context.Context, hotelID int64, checkIn, checkOut time.Time, roomsNeeded int) (bool, error) {
	if roomsNeeded < 1 {
		return false, fmt.Errorf("%w: rooms must be at least 1", domain.ErrInvalidRequest)
	}
	free, err := g.AvailableRoomCount(ctx, hotelID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return roomsNeeded <= free, nil
}

// Remaining is the inventory minus the busiest night's committed rooms.
// Occupancies not overlapping [checkIn, checkOut) are ignored.
func Remaining(inventory int, checkIn, checkOut time.Time, occ []domain.Occupancy) int {
	relevant := occ[:0:0]
	for _, o := range occ {
		if o.Rooms > 0 && o.Overlaps(checkIn, checkOut) {
			relevant = append(relevant, o)
		}
	}

	peak := 0
	domain.EachNight(checkIn, checkOut, func(night time.Time) {
		used := 0
		for _, o := range relevant {
			if o.Overlaps(night, night.AddDate(0, 0, 1)) {
				used += o.Rooms
			}
		}
		peak = max(peak, used)
	})
	return max(0, inventory-peak)
}

// Check returns the capacity check run inside an atomic admission.
func Check(checkIn, checkOut time.Time, roomsNeeded int) domain.CapacityCheck {
	return func(inventory int, overlapping []domain.Occupancy) error {
		free := Remaining(inventory, checkIn, checkOut, overlapping)
		if roomsNeeded > free {
			return &domain.UnavailableError{Requested: roomsNeeded, Available: free}
		}
		return nil
	}
}
