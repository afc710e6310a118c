package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stay_pricing/internal/domain"
)

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	return upsertHotel(ctx, r.db, h)
}

// ReplaceSeasonalRules swaps the whole rule set of a hotel in one transaction.
func (r *Repo) ReplaceSeasonalRules(ctx context.Context, hotelID int64, rules []domain.SeasonalPriceRule) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return replaceRules(ctx, tx, hotelID, rules)
	})
}

// SaveHotel writes the hotel row and its rule set in a single transaction.
func (r *Repo) SaveHotel(ctx context.Context, h domain.Hotel, rules []domain.SeasonalPriceRule) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertHotel(ctx, tx, h); err != nil {
			return err
		}
		return replaceRules(ctx, tx, h.ID, rules)
	})
}

func (r *Repo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func upsertHotel(ctx context.Context, q querier, h domain.Hotel) error {
	var plan []byte
	if h.MealPlan != nil {
		plan, _ = json.Marshal(h.MealPlan)
	}
	_, err := q.ExecContext(ctx, upsertHotelSQL,
		h.ID,
		h.Name,
		h.BasePricePerNight,
		h.GuestsPerRoom(),
		h.ExtraGuestPrice,
		h.TaxPercentage,
		h.TotalRooms,
		valJSON(plan),
	)
	return err
}

func replaceRules(ctx context.Context, q querier, hotelID int64, rules []domain.SeasonalPriceRule) error {
	if _, err := q.ExecContext(ctx, deleteSeasonalRulesSQL, hotelID); err != nil {
		return err
	}
	for _, rule := range rules {
		if _, err := q.ExecContext(ctx, insertSeasonalRuleSQL,
			hotelID,
			domain.Day(rule.StartDate),
			domain.Day(rule.EndDate),
			rule.PricePerNight,
			rule.IsAvailable,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	row := r.db.QueryRowContext(ctx, getHotelSQL, id)

	var h domain.Hotel
	var planJSON []byte
	if err := row.Scan(
		&h.ID,
		&h.Name,
		&h.BasePricePerNight,
		&h.MaxGuestsPerRoom,
		&h.ExtraGuestPrice,
		&h.TaxPercentage,
		&h.TotalRooms,
		&planJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}

	if len(planJSON) > 0 {
		var mp domain.MealPlan
		if err := json.Unmarshal(planJSON, &mp); err != nil {
			return domain.Hotel{}, fmt.Errorf("hotel %d: decode meal_plan: %w", id, err)
		}
		h.MealPlan = &mp
	}
	return h, nil
}

func (r *Repo) ListSeasonalRules(ctx context.Context, hotelID int64) ([]domain.SeasonalPriceRule, error) {
	rows, err := r.db.QueryContext(ctx, listSeasonalRulesSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SeasonalPriceRule
	for rows.Next() {
		var rule domain.SeasonalPriceRule
		if err := rows.Scan(
			&rule.ID,
			&rule.HotelID,
			&rule.StartDate,
			&rule.EndDate,
			&rule.PricePerNight,
			&rule.IsAvailable,
		); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListOverlappingBookings(ctx context.Context, hotelID int64, checkIn, checkOut time.Time) ([]domain.Occupancy, error) {
	return listOverlapping(ctx, r.db, hotelID, checkIn, checkOut)
}

func (r *Repo) InsertBooking(ctx context.Context, b domain.Booking) (int64, error) {
	return insertBooking(ctx, r.db, b)
}

// AdmitAtomically locks the hotel row, re-reads the overlapping bookings and
// inserts b only if check accepts, all inside one transaction.
func (r *Repo) AdmitAtomically(ctx context.Context, b domain.Booking, check domain.CapacityCheck) (id int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var inventory int
	if err = tx.QueryRowContext(ctx, lockHotelInventorySQL, b.HotelID).Scan(&inventory); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return 0, err
	}

	occ, err := listOverlapping(ctx, tx, b.HotelID, b.CheckIn, b.CheckOut)
	if err != nil {
		return 0, err
	}
	if err = check(inventory, occ); err != nil {
		return 0, err
	}

	if id, err = insertBooking(ctx, tx, b); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func listOverlapping(ctx context.Context, q querier, hotelID int64, checkIn, checkOut time.Time) ([]domain.Occupancy, error) {
	rows, err := q.QueryContext(ctx, listOverlappingBookingsSQL, hotelID, domain.Day(checkOut), domain.Day(checkIn))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Occupancy
	for rows.Next() {
		var o domain.Occupancy
		if err := rows.Scan(&o.CheckIn, &o.CheckOut, &o.Rooms); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func insertBooking(ctx context.Context, q querier, b domain.Booking) (int64, error) {
	qr := b.Quote
	res, err := q.ExecContext(ctx, insertBookingSQL,
		b.Reference,
		b.HotelID,
		domain.Day(b.CheckIn),
		domain.Day(b.CheckOut),
		b.Rooms,
		b.Adults,
		b.Children,
		b.TotalGuests,
		b.GuestName,
		valStr(b.GuestPhone),
		b.RoomName,
		qr.Nights,
		qr.AverageNightlyPrice,
		qr.SubtotalBase,
		qr.ExtraGuestsCount,
		qr.ExtraGuestCharge,
		qr.ExtraMealsPerNight,
		qr.RequiredExtraMealsTotal,
		qr.ExtraMealCharge,
		qr.Subtotal,
		qr.Tax,
		b.TotalAmount,
		b.AmountPaid,
		string(b.Status),
		string(b.PaymentStatus),
		b.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
