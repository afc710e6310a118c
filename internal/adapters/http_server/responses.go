package httpserver

import (
	"strings"
	"time"

	"stay_pricing/internal/domain"
	"stay_pricing/internal/pricing"
)

// Money leaves the service as strings rounded to two places; internal values
// keep full precision.

type nightlyPriceResponse struct {
	Date  string `json:"date"`
	Price string `json:"price"`
}

type quoteResponse struct {
	HotelID                 int64                  `json:"hotel_id"`
	CheckIn                 string                 `json:"check_in"`
	CheckOut                string                 `json:"check_out"`
	Nights                  int                    `json:"nights"`
	NightlyPrices           []nightlyPriceResponse `json:"nightly_prices"`
	AverageNightlyPrice     string                 `json:"average_nightly_price"`
	SubtotalBase            string                 `json:"subtotal_base"`
	ExtraGuestsCount        int                    `json:"extra_guests_count"`
	ExtraGuestCharge        string                 `json:"extra_guest_charge"`
	ExtraMealsPerNight      int                    `json:"extra_meals_per_night"`
	RequiredExtraMealsTotal int                    `json:"required_extra_meals_total"`
	ExtraMealCharge         string                 `json:"extra_meal_charge"`
	Subtotal                string                 `json:"subtotal"`
	Tax                     string                 `json:"tax"`
	Total                   string                 `json:"total"`
}

func toQuoteResponse(hotelID int64, in, out time.Time, q domain.QuoteResult) quoteResponse {
	nightly := make([]nightlyPriceResponse, 0, len(q.NightlyPrices))
	for _, n := range q.NightlyPrices {
		nightly = append(nightly, nightlyPriceResponse{Date: n.Date.Format(domain.DateLayout), Price: pricing.Display(n.Price)})
	}
	return quoteResponse{
		HotelID:                 hotelID,
		CheckIn:                 in.Format(domain.DateLayout),
		CheckOut:                out.Format(domain.DateLayout),
		Nights:                  q.Nights,
		NightlyPrices:           nightly,
		AverageNightlyPrice:     pricing.Display(q.AverageNightlyPrice),
		SubtotalBase:            pricing.Display(q.SubtotalBase),
		ExtraGuestsCount:        q.ExtraGuestsCount,
		ExtraGuestCharge:        pricing.Display(q.ExtraGuestCharge),
		ExtraMealsPerNight:      q.ExtraMealsPerNight,
		RequiredExtraMealsTotal: q.RequiredExtraMealsTotal,
		ExtraMealCharge:         pricing.Display(q.ExtraMealCharge),
		Subtotal:                pricing.Display(q.Subtotal),
		Tax:                     pricing.Display(q.Tax),
		Total:                   pricing.Display(q.Total),
	}
}

type availabilityResponse struct {
	HotelID            int64  `json:"hotel_id"`
	CheckIn            string `json:"check_in"`
	CheckOut           string `json:"check_out"`
	RoomsRequested     int    `json:"rooms_requested"`
	AvailableRoomCount int    `json:"available_room_count"`
	Available          bool   `json:"available"`
}

type bookingRequestBody struct {
	HotelID             int64  `json:"hotel_id"`
	CheckIn             string `json:"check_in"`
	CheckOut            string `json:"check_out"`
	Rooms               int    `json:"rooms"`
	Adults              int    `json:"adults"`
	Children            int    `json:"children"`
	ExtraMealsRequested int    `json:"extra_meals_requested"`
	GuestName           string `json:"guest_name"`
	GuestPhone          string `json:"guest_phone"`
	RoomName            string `json:"room_name"`
}

func (b bookingRequestBody) toDomain() (domain.BookingRequest, error) {
	in, err := domain.ParseDate(b.CheckIn)
	if err != nil {
		return domain.BookingRequest{}, err
	}
	out, err := domain.ParseDate(b.CheckOut)
	if err != nil {
		return domain.BookingRequest{}, err
	}
	return domain.BookingRequest{
		HotelID:             b.HotelID,
		CheckIn:             in,
		CheckOut:            out,
		Rooms:               b.Rooms,
		Adults:              b.Adults,
		Children:            b.Children,
		ExtraMealsRequested: b.ExtraMealsRequested,
		GuestName:           strings.TrimSpace(b.GuestName),
		GuestPhone:          strings.TrimSpace(b.GuestPhone),
		RoomName:            strings.TrimSpace(b.RoomName),
	}, nil
}

type bookingResponse struct {
	ID              int64         `json:"id"`
	Reference       string        `json:"reference"`
	HotelID         int64         `json:"hotel_id"`
	CheckIn         string        `json:"check_in"`
	CheckOut        string        `json:"check_out"`
	Rooms           int           `json:"rooms"`
	Adults          int           `json:"adults"`
	Children        int           `json:"children"`
	TotalGuests     int           `json:"total_guests"`
	GuestName       string        `json:"guest_name"`
	GuestPhone      string        `json:"guest_phone,omitempty"`
	RoomName        string        `json:"room_name"`
	Status          string        `json:"status"`
	PaymentStatus   string        `json:"payment_status"`
	TotalAmount     string        `json:"total_amount"`
	AmountPaid      string        `json:"amount_paid"`
	Quote           quoteResponse `json:"quote"`
	ConcurrencySafe bool          `json:"concurrency_safe"`
	CreatedAt       time.Time     `json:"created_at"`
}

func toBookingResponse(adm domain.Admission) bookingResponse {
	b := adm.Booking
	return bookingResponse{
		ID:              b.ID,
		Reference:       b.Reference,
		HotelID:         b.HotelID,
		CheckIn:         b.CheckIn.Format(domain.DateLayout),
		CheckOut:        b.CheckOut.Format(domain.DateLayout),
		Rooms:           b.Rooms,
		Adults:          b.Adults,
		Children:        b.Children,
		TotalGuests:     b.TotalGuests,
		GuestName:       b.GuestName,
		GuestPhone:      b.GuestPhone,
		RoomName:        b.RoomName,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		TotalAmount:     pricing.Display(b.TotalAmount),
		AmountPaid:      pricing.Display(b.AmountPaid),
		Quote:           toQuoteResponse(b.HotelID, b.CheckIn, b.CheckOut, b.Quote),
		ConcurrencySafe: adm.ConcurrencySafe,
		CreatedAt:       b.CreatedAt,
	}
}
