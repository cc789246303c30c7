package app

import (
	"strconv"
	"strings"

	"roomfinder/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

/********** alias registry (single source of truth) **********/

var filterAliases = map[string][]string{
	"city":             {"city", "cityName"},
	"keyword":          {"keyword", "q", "query"},
	"checkIn":          {"checkIn", "check_in", "startDate"},
	"checkOut":         {"checkOut", "check_out", "endDate"},
	"guestCount":       {"guestCount", "guests", "adults"},
	"rooms":            {"rooms", "roomCount"},
	"hasWindow":        {"hasWindow"},
	"hasBreakfast":     {"hasBreakfast"},
	"childrenFriendly": {"childrenFriendly"},
	"minPrice":         {"minPrice"},
	"maxPrice":         {"maxPrice"},
	"sort":             {"sort", "sortBy"},
	"cursor":           {"cursor", "offset"},
	"limit":            {"limit", "pageSize"},
}

/********** tiny helpers **********/

// lookupAny: first present value among a key's aliases.
func lookupAny(m map[string]any, key string) any {
	for _, k := range filterAliases[key] {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func lookupStr(m map[string]any, key string) string {
	switch v := lookupAny(m, key).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// getFloatFlexible: number from float64/int/string like "8,5"; ok=false when absent or malformed.
func getFloatFlexible(m map[string]any, key string) (float64, bool) {
	switch v := lookupAny(m, key).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func getIntFlexible(m map[string]any, key string) (int, bool) {
	f, ok := getFloatFlexible(m, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// getBoolFlexible accepts true/false, 1/0 and their string forms; anything else is false.
func getBoolFlexible(m map[string]any, key string) bool {
	switch v := lookupAny(m, key).(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

/********** filters **********/

// ParseSearchFilters maps a loosely-typed request body onto normalized filters.
// It never fails: malformed fields degrade to "unconstrained".
func ParseSearchFilters(body map[string]any) domain.SearchFilters {
	f := domain.SearchFilters{
		City:             lookupStr(body, "city"),
		Keyword:          lookupStr(body, "keyword"),
		Dates:            domain.OptionalDateRange(lookupStr(body, "checkIn"), lookupStr(body, "checkOut")),
		HasWindow:        getBoolFlexible(body, "hasWindow"),
		HasBreakfast:     getBoolFlexible(body, "hasBreakfast"),
		ChildrenFriendly: getBoolFlexible(body, "childrenFriendly"),
		Sort:             domain.SortMode(strings.ToLower(lookupStr(body, "sort"))),
	}
	f.GuestCount, _ = getIntFlexible(body, "guestCount")
	f.Rooms, _ = getIntFlexible(body, "rooms")
	f.MinPrice, _ = getFloatFlexible(body, "minPrice")
	f.MaxPrice, _ = getFloatFlexible(body, "maxPrice")
	f.Cursor, _ = getIntFlexible(body, "cursor")
	f.Limit, _ = getIntFlexible(body, "limit")
	return NormalizeFilters(f)
}

// NormalizeFilters clamps and defaults every field.
func NormalizeFilters(f domain.SearchFilters) domain.SearchFilters {
	f.City = strings.TrimSpace(f.City)
	f.Keyword = strings.TrimSpace(f.Keyword)
	if f.Dates.Nights() < 1 {
		f.Dates = domain.DateRange{}
	}
	if f.GuestCount < 1 {
		f.GuestCount = 1
	}
	if f.Rooms < 1 {
		f.Rooms = 1
	}
	if f.MinPrice < 0 {
		f.MinPrice = 0
	}
	if f.MaxPrice < 0 {
		f.MaxPrice = 0
	}
	if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		f.MinPrice, f.MaxPrice = f.MaxPrice, f.MinPrice
	}
	switch f.Sort {
	case domain.SortDefault, domain.SortPriceLow, domain.SortPriceHigh, domain.SortRating:
	default:
		f.Sort = domain.SortDefault
	}
	if f.Cursor < 0 {
		f.Cursor = 0
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}
