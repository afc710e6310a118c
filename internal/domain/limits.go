package domain

// Upper bounds on a single quote or booking. Anything above is a request
// error, not a price.
const (
	MaxStayNights      = 366
	MaxRoomsPerBooking = 500
	MaxPartyPerRoom    = 20
	MaxExtraMeals      = MaxRoomsPerBooking * MaxPartyPerRoom
)
