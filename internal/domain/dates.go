package domain

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is a half-open stay [CheckIn, CheckOut). The zero value means "no dates".
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return t, nil
}

// NewDateRange parses both dates and requires checkOut to be strictly after checkIn.
func NewDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	if !out.After(in) {
		return DateRange{}, fmt.Errorf("%w: checkOut %s must be after checkIn %s", ErrInvalidRange, checkOut, checkIn)
	}
	return DateRange{CheckIn: in, CheckOut: out}, nil
}

// OptionalDateRange is the lenient form used by search and detail pages:
// anything unparseable or inverted yields the zero range.
func OptionalDateRange(checkIn, checkOut string) DateRange {
	if checkIn == "" || checkOut == "" {
		return DateRange{}
	}
	r, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		return DateRange{}
	}
	return r
}

func (r DateRange) IsZero() bool { return r.CheckIn.IsZero() || r.CheckOut.IsZero() }

// Nights is the number of calendar nights in the range, 0 for the zero range.
func (r DateRange) Nights() int {
	if r.IsZero() {
		return 0
	}
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

func (r DateRange) From() string {
	if r.IsZero() {
		return ""
	}
	return r.CheckIn.Format(DateLayout)
}

func (r DateRange) To() string {
	if r.IsZero() {
		return ""
	}
	return r.CheckOut.Format(DateLayout)
}

// Overlaps reports whether the two ranges share at least one night.
func (r DateRange) Overlaps(o DateRange) bool {
	if r.IsZero() || o.IsZero() {
		return false
	}
	return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}
