package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"stay_pricing/internal/adapters/observability"
	"stay_pricing/internal/availability"
	"stay_pricing/internal/domain"
)

type AdmissionMode string

const (
	// ModeAtomic checks capacity and inserts inside one storage transaction.
	ModeAtomic AdmissionMode = "atomic"
	// ModeLegacy checks through the gate and inserts with a second call.
	// Concurrent requests for the last rooms can both pass the check.
	ModeLegacy AdmissionMode = "legacy"
)

// ParseAdmissionMode defaults to atomic for anything but "legacy".
func ParseAdmissionMode(s string) AdmissionMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeLegacy)) {
		return ModeLegacy
	}
	return ModeAtomic
}

const defaultNotifyTimeout = 5 * time.Second

type AdmissionService struct {
	quotes   *QuoteService
	gate     *availability.Gate
	bookings domain.BookingRepository
	notifier domain.Notifier
	mode     AdmissionMode

	notifyTimeout time.Duration
	now           func() time.Time
	inflight      sync.WaitGroup
}

func NewAdmissionService(q *QuoteService, b domain.BookingRepository, n domain.Notifier, mode AdmissionMode) *AdmissionService {
	return &AdmissionService{
		quotes:        q,
		gate:          availability.NewGate(q, b),
		bookings:      b,
		notifier:      n,
		mode:          mode,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
	}
}

func (s *AdmissionService) Mode() AdmissionMode { return s.mode }

// Availability reports how many rooms are free for the whole stay.
func (s *AdmissionService) Availability(ctx context.Context, hotelID int64, checkIn, checkOut time.Time) (int, error) {
	return s.gate.AvailableRoomCount(ctx, hotelID, checkIn, checkOut)
}

// AdmitBooking validates, prices, checks capacity and persists a booking.
// On failure the returned Admission is in StateRejected.
func (s *AdmissionService) AdmitBooking(ctx context.Context, req domain.BookingRequest) (domain.Admission, error) {
	start := time.Now()
	adm, err := s.admit(ctx, req)
	observability.ObserveAdmission(string(s.mode), admissionOutcome(err), time.Since(start))

	ev := log.Info()
	if err != nil {
		adm = domain.Admission{State: domain.StateRejected, ConcurrencySafe: s.mode == ModeAtomic}
		ev = log.Warn().Err(err)
	}
	ev.Int64("hotel_id", req.HotelID).
		Str("check_in", req.CheckIn.Format(domain.DateLayout)).
		Str("check_out", req.CheckOut.Format(domain.DateLayout)).
		Int("rooms", req.Rooms).
		Str("mode", string(s.mode)).
		Str("state", string(adm.State)).
		Str("reference", adm.Booking.Reference).
		Msg("booking admission")
	return adm, err
}

func (s *AdmissionService) admit(ctx context.Context, req domain.BookingRequest) (domain.Admission, error) {
	// Validating
	if err := validateRequest(req); err != nil {
		return domain.Admission{}, err
	}

	// PricingResolved
	quote, err := s.quotes.Quote(ctx, QuoteQuery{
		HotelID:    req.HotelID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Rooms:      req.Rooms,
		Adults:     req.Adults,
		Children:   req.Children,
		ExtraMeals: req.ExtraMealsRequested,
	})
	if err != nil {
		return domain.Admission{}, err
	}
	b := s.newBooking(req, quote)

	// AvailabilityChecked, Persisted
	adm := domain.Admission{State: domain.StatePricingResolved, ConcurrencySafe: s.mode == ModeAtomic}
	switch s.mode {
	case ModeLegacy:
		log.Warn().Int64("hotel_id", req.HotelID).Str("reference", b.Reference).
			Msg("legacy admission: availability check and insert are separate calls, not concurrency-safe")
		b.ID, err = s.admitTwoStep(ctx, b)
	default:
		b.ID, err = s.bookings.AdmitAtomically(ctx, b, availability.Check(b.CheckIn, b.CheckOut, b.Rooms))
	}
	if err != nil {
		return domain.Admission{}, admissionErr(err)
	}

	adm.Booking = b
	adm.State = domain.StatePersisted
	s.notify(ctx, b)
	return adm, nil
}

func (s *AdmissionService) admitTwoStep(ctx context.Context, b domain.Booking) (int64, error) {
	free, err := s.gate.AvailableRoomCount(ctx, b.HotelID, b.CheckIn, b.CheckOut)
	if err != nil {
		return 0, err
	}
	if b.Rooms > free {
		return 0, &domain.UnavailableError{Requested: b.Rooms, Available: free}
	}
	return s.bookings.InsertBooking(ctx, b)
}

func (s *AdmissionService) newBooking(req domain.BookingRequest, q domain.QuoteResult) domain.Booking {
	return domain.Booking{
		Reference:     uuid.NewString(),
		HotelID:       req.HotelID,
		CheckIn:       domain.Day(req.CheckIn),
		CheckOut:      domain.Day(req.CheckOut),
		Rooms:         req.Rooms,
		Adults:        req.Adults,
		Children:      req.Children,
		TotalGuests:   req.TotalGuests(),
		GuestName:     strings.TrimSpace(req.GuestName),
		GuestPhone:    strings.TrimSpace(req.GuestPhone),
		RoomName:      strings.TrimSpace(req.RoomName),
		Quote:         q,
		TotalAmount:   q.Total,
		AmountPaid:    decimal.Zero,
		Status:        domain.StatusNew,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedAt:     s.now().UTC(),
	}
}

// notify publishes booking.created in the background. Failures are logged only.
func (s *AdmissionService) notify(ctx context.Context, b domain.Booking) {
	if s.notifier == nil {
		return
	}
	ev := domain.BookingEvent{
		Type:       domain.EventBookingCreated,
		BookingID:  b.ID,
		Reference:  b.Reference,
		HotelID:    b.HotelID,
		CheckIn:    b.CheckIn.Format(domain.DateLayout),
		CheckOut:   b.CheckOut.Format(domain.DateLayout),
		Rooms:      b.Rooms,
		Total:      b.TotalAmount,
		OccurredAt: b.CreatedAt,
	}
	ctx = context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.PublishBooking(ctx, ev); err != nil {
			observability.ObserveNotification("failed")
			log.Error().Err(err).Str("reference", ev.Reference).Msg("publish booking event failed")
			return
		}
		observability.ObserveNotification("sent")
	}()
}

// Wait blocks until background notifications have finished.
func (s *AdmissionService) Wait() { s.inflight.Wait() }

func validateRequest(req domain.BookingRequest) error {
	if err := domain.ValidateRange(req.CheckIn, req.CheckOut); err != nil {
		return err
	}
	switch {
	case req.HotelID <= 0:
		return fmt.Errorf("%w: hotel_id is required", domain.ErrInvalidRequest)
	case req.Rooms < 1:
		return fmt.Errorf("%w: rooms must be at least 1", domain.ErrInvalidRequest)
	case req.Adults < 1:
		return fmt.Errorf("%w: adults must be at least 1", domain.ErrInvalidRequest)
	case req.Children < 0:
		return fmt.Errorf("%w: children must not be negative", domain.ErrInvalidRequest)
	case req.ExtraMealsRequested < 0:
		return fmt.Errorf("%w: extra meals must not be negative", domain.ErrInvalidRequest)
	case req.Rooms > domain.MaxRoomsPerBooking:
		return fmt.Errorf("%w: at most %d rooms per booking", domain.ErrInvalidRequest, domain.MaxRoomsPerBooking)
	case tooManyGuests(req.Rooms, req.Adults, req.Children):
		return fmt.Errorf("%w: at most %d guests per room", domain.ErrInvalidRequest, domain.MaxPartyPerRoom)
	case req.ExtraMealsRequested > domain.MaxExtraMeals:
		return fmt.Errorf("%w: at most %d extra meals", domain.ErrInvalidRequest, domain.MaxExtraMeals)
	case strings.TrimSpace(req.GuestName) == "":
		return fmt.Errorf("%w: guest_name is required", domain.ErrInvalidRequest)
	case strings.TrimSpace(req.RoomName) == "":
		return fmt.Errorf("%w: room_name is required", domain.ErrInvalidRequest)
	}
	return nil
}

func admissionErr(err error) error {
	if errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	return storageErr("admit booking", err)
}

func admissionOutcome(err error) string {
	if err == nil {
		return "persisted"
	}
	return outcome(err)
}
