package amqpad

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"

	"stay_pricing/internal/domain"
)

type fakeChannel struct {
	exchange string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

func event() domain.BookingEvent {
	return domain.BookingEvent{
		Type:       domain.EventBookingCreated,
		BookingID:  11,
		Reference:  "2d0c7f5e-9b7a-4a51-9d0f-3f1f5b1d2c44",
		HotelID:    1,
		CheckIn:    "2025-05-01",
		CheckOut:   "2025-05-04",
		Rooms:      2,
		Total:      decimal.RequireFromString("2242.5"),
		OccurredAt: time.Date(2025, 4, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublishBooking_PersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "bookings")

	if err := p.PublishBooking(context.Background(), event()); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ch.exchange != "bookings" || len(ch.msgs) != 1 {
		t.Fatalf("unexpected publish: %q %d", ch.exchange, len(ch.msgs))
	}
	msg := ch.msgs[0]
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" || msg.Type != domain.EventBookingCreated {
		t.Fatalf("unexpected message props: %+v", msg)
	}

	var got domain.BookingEvent
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("body: %v", err)
	}
	if got.Reference != event().Reference || !got.Total.Equal(decimal.RequireFromString("2242.5")) {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestPublishBooking_Errors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, "bookings")
	if err := p.PublishBooking(context.Background(), event()); err == nil {
		t.Fatalf("expected publish error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := newPublisher(&fakeChannel{}, "bookings").PublishBooking(ctx, event()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := p.Close(); err != nil || !ch.closed {
		t.Fatalf("close: %v", err)
	}
}
