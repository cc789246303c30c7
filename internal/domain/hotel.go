package domain

import (
	"math"
	"time"
)

// ReviewState is the admin review state of a hotel listing.
type ReviewState string

const (
	ReviewPending   ReviewState = "PENDING"
	ReviewPublished ReviewState = "PUBLISHED"
	ReviewRejected  ReviewState = "REJECTED"
	ReviewDraft     ReviewState = "DRAFT"
)

const (
	HotelOffline = 0
	HotelOnline  = 1
)

type Hotel struct {
	ID          int64
	OwnerID     int64
	Name        string
	Address     string
	City        string
	Lat, Lng    *float64
	Star        int
	Tags        []string
	CoverImage  string
	Images      []string
	Status      int
	Checking    ReviewState
	Score       float64
	ReviewCount int
	SortOrder   int
}

// Bookable reports whether the hotel accepts bookings.
func (h Hotel) Bookable() bool {
	return h.Status == HotelOnline && h.Checking == ReviewPublished
}

type RoomType struct {
	ID               int64
	HotelID          int64
	Name             string
	Price            int64 // base nightly price, minor currency unit
	BedInfo          string
	Images           []string
	Capacity         int
	HasWindow        bool
	HasBreakfast     bool
	ChildrenFriendly bool
	SortOrder        int
	TotalRooms       int // quota used when materializing new ledger rows
}

// LedgerRow is one RoomInventory record: (RoomTypeID, Date) is the identity.
type LedgerRow struct {
	RoomTypeID int64
	Date       time.Time
	Quota      int
	Price      int64 // nightly override, minor unit; 0 falls back to RoomType.Price
}

// ToMajor converts a minor-unit amount to major currency units.
func ToMajor(minor int64) float64 { return float64(minor) / 100 }

// ToMinor converts a major-unit amount to minor currency units. Amounts beyond
// the int64 range saturate instead of wrapping.
func ToMinor(major float64) int64 {
	if math.IsNaN(major) || major <= 0 {
		return 0
	}
	minor := major*100 + 0.5
	if minor >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(minor)
}
