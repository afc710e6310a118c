package mysql

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, base_price_per_night, max_guests_per_room, extra_guest_price, tax_percentage, total_rooms, meal_plan)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name                 = VALUES(name),
  base_price_per_night = VALUES(base_price_per_night),
  max_guests_per_room  = VALUES(max_guests_per_room),
  extra_guest_price    = VALUES(extra_guest_price),
  tax_percentage       = VALUES(tax_percentage),
  total_rooms          = VALUES(total_rooms),
  meal_plan            = VALUES(meal_plan),
  updated_at           = CURRENT_TIMESTAMP
`

const deleteSeasonalRulesSQL = `DELETE FROM seasonal_prices WHERE hotel_id = ?`

const insertSeasonalRuleSQL = `
INSERT INTO seasonal_prices
  (hotel_id, start_date, end_date, price_per_night, is_available)
VALUES
  (?, ?, ?, ?, ?)
`

const insertMissSQL = `
INSERT INTO catalog_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE http_status = VALUES(http_status), seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getHotelSQL = `
SELECT
  id,
  name,
  base_price_per_night,
  max_guests_per_room,
  extra_guest_price,
  tax_percentage,
  total_rooms,
  meal_plan
FROM hotels
WHERE id = ?
`

const listSeasonalRulesSQL = `
SELECT id, hotel_id, start_date, end_date, price_per_night, is_available
FROM seasonal_prices
WHERE hotel_id = ?
ORDER BY start_date, id
`

// Half-open overlap: existing.check_in < queried.check_out AND existing.check_out > queried.check_in.
const listOverlappingBookingsSQL = `
SELECT check_in, check_out, rooms
FROM bookings
WHERE hotel_id = ?
  AND status NOT IN ('cancelled', 'rejected')
  AND check_in < ?
  AND check_out > ?
`

// -----------------------------------------------------------------------------
// ADMISSION
// -----------------------------------------------------------------------------

// Locks the hotel row for the rest of the transaction; concurrent admissions
// for the same hotel queue here, whatever dates they ask for.
const lockHotelInventorySQL = `SELECT total_rooms FROM hotels WHERE id = ? FOR UPDATE`

const insertBookingSQL = `
INSERT INTO bookings
  (reference, hotel_id, check_in, check_out, rooms, adults, children, total_guests,
   guest_name, guest_phone, room_name,
   nights, average_nightly_price, subtotal_base, extra_guests_count, extra_guest_charge,
   extra_meals_per_night, required_extra_meals_total, extra_meal_charge, subtotal, tax,
   total_amount, amount_paid, status, payment_status, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?,
   ?, ?, ?,
   ?, ?, ?, ?, ?,
   ?, ?, ?, ?, ?,
   ?, ?, ?, ?, ?)
`
