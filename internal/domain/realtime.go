package domain

import "time"

// UnconstrainedQuota is reported when no date range was given.
const UnconstrainedQuota = 999

// RangeState is the availability of one room type over a date range.
type RangeState struct {
	Quota     int
	Price     int64 // minor unit
	Available bool
}

// RoomState is the wire shape pushed to realtime subscribers and detail pages.
type RoomState struct {
	RoomTypeID int64   `json:"roomTypeId"`
	HotelID    int64   `json:"hotelId"`
	Price      float64 `json:"price"`
	Quota      int     `json:"quota"`
	CheckIn    string  `json:"checkIn"`
	CheckOut   string  `json:"checkOut"`
}

// InventoryChanged announces a ledger mutation for one room type over a range.
type InventoryChanged struct {
	HotelID    int64     `json:"hotelId"`
	RoomTypeID int64     `json:"roomTypeId"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	Reason     string    `json:"reason"` // booking | merchant
	OccurredAt time.Time `json:"occurredAt"`
}

// Booking is the result of a successful reservation.
type Booking struct {
	HotelID    int64  `json:"hotelId"`
	RoomTypeID int64  `json:"roomTypeId"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Nights     int    `json:"nights"`
}
