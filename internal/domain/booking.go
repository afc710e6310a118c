package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	StatusNew       BookingStatus = "new"
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusRejected  BookingStatus = "rejected"
)

// Occupies reports whether a booking in this status holds rooms.
func (s BookingStatus) Occupies() bool {
	return s != StatusCancelled && s != StatusRejected
}

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
)

type BookingRequest struct {
	HotelID             int64     `json:"hotel_id"`
	CheckIn             time.Time `json:"check_in"`
	CheckOut            time.Time `json:"check_out"`
	Rooms               int       `json:"rooms"`
	Adults              int       `json:"adults"`
	Children            int       `json:"children"`
	ExtraMealsRequested int       `json:"extra_meals_requested"`
	GuestName           string    `json:"guest_name"`
	GuestPhone          string    `json:"guest_phone,omitempty"`
	RoomName            string    `json:"room_name"`
}

func (r BookingRequest) TotalGuests() int { return r.Adults + r.Children }

// QuoteResult is derived per request and only persisted inside a Booking.
type QuoteResult struct {
	Nights                  int             `json:"nights"`
	NightlyPrices           []NightlyPrice  `json:"nightly_prices,omitempty"`
	AverageNightlyPrice     decimal.Decimal `json:"average_nightly_price"`
	SubtotalBase            decimal.Decimal `json:"subtotal_base"`
	ExtraGuestsCount        int             `json:"extra_guests_count"`
	ExtraGuestCharge        decimal.Decimal `json:"extra_guest_charge"`
	ExtraMealsPerNight      int             `json:"extra_meals_per_night"`
	RequiredExtraMealsTotal int             `json:"required_extra_meals_total"`
	ExtraMealCharge         decimal.Decimal `json:"extra_meal_charge"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	Tax                     decimal.Decimal `json:"tax"`
	Total                   decimal.Decimal `json:"total"`
}

type Booking struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	HotelID       int64           `json:"hotel_id"`
	CheckIn       time.Time       `json:"check_in"`
	CheckOut      time.Time       `json:"check_out"`
	Rooms         int             `json:"rooms"`
	Adults        int             `json:"adults"`
	Children      int             `json:"children"`
	TotalGuests   int             `json:"total_guests"`
	GuestName     string          `json:"guest_name"`
	GuestPhone    string          `json:"guest_phone,omitempty"`
	RoomName      string          `json:"room_name"`
	Quote         QuoteResult     `json:"quote"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        BookingStatus   `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Occupancy is the slice of an existing booking the availability gate needs.
type Occupancy struct {
	CheckIn  time.Time
	CheckOut time.Time
	Rooms    int
}

// Overlaps uses half-open intervals: a stay ending on a day frees the room that night.
func (o Occupancy) Overlaps(checkIn, checkOut time.Time) bool {
	return Day(o.CheckIn).Before(Day(checkOut)) && Day(o.CheckOut).After(Day(checkIn))
}

type AdmissionState string

const (
	StateValidating          AdmissionState = "validating"
	StatePricingResolved     AdmissionState = "pricing_resolved"
	StateAvailabilityChecked AdmissionState = "availability_checked"
	StatePersisted           AdmissionState = "persisted"
	StateRejected            AdmissionState = "rejected"
)

// Admission is the outcome of a successful BookingAdmission run.
type Admission struct {
	Booking Booking        `json:"booking"`
	State   AdmissionState `json:"state"`
	// ConcurrencySafe is false when the check and the insert ran as two calls.
	ConcurrencySafe bool `json:"concurrency_safe"`
}

// BookingEvent is published after a booking is persisted.
type BookingEvent struct {
	Type       string          `json:"type"`
	BookingID  int64           `json:"booking_id"`
	Reference  string          `json:"reference"`
	HotelID    int64           `json:"hotel_id"`
	CheckIn    string          `json:"check_in"`
	CheckOut   string          `json:"check_out"`
	Rooms      int             `json:"rooms"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

const EventBookingCreated = "booking.created"
