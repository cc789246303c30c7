package app_test

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"roomfinder/internal/app"
	"roomfinder/internal/domain"
)

func rows(quotas []int, prices []int64) []domain.LedgerRow {
	out := make([]domain.LedgerRow, len(quotas))
	start := day("2025-06-01")
	for i, q := range quotas {
		out[i] = domain.LedgerRow{RoomTypeID: 1, Date: start.AddDate(0, 0, i), Quota: q, Price: prices[i]}
	}
	return out
}

func TestResolveRange(t *testing.T) {
	cases := []struct {
		name   string
		rows   []domain.LedgerRow
		nights int
		want   domain.RangeState
	}{
		{"scarcest night caps quota", rows([]int{5, 2, 7}, []int64{30000, 28000, 0}), 3, domain.RangeState{Quota: 2, Price: 28000, Available: true}},
		{"zero prices fall back to base", rows([]int{1, 1}, []int64{0, 0}), 2, domain.RangeState{Quota: 1, Price: 19900, Available: true}},
		{"missing night is sold out", rows([]int{5, 5}, []int64{0, 0}), 3, domain.RangeState{Quota: 0, Price: 19900}},
		{"one sold out night", rows([]int{3, 0}, []int64{100, 100}), 2, domain.RangeState{Quota: 0, Price: 100}},
		{"no dates is always available", nil, 0, domain.RangeState{Quota: domain.UnconstrainedQuota, Price: 19900, Available: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := app.ResolveRange(tc.rows, tc.nights, 19900)
			if got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestResolveRange_QuotaNeverExceedsScarcestNight(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 1 + rnd.Intn(10)
		qs := make([]int, n)
		ps := make([]int64, n)
		lowest := 1 << 30
		for j := range qs {
			qs[j] = rnd.Intn(6)
			ps[j] = int64(rnd.Intn(3)) * 10000
			if qs[j] < lowest {
				lowest = qs[j]
			}
		}
		got := app.ResolveRange(rows(qs, ps), n, 5000)
		if got.Quota > lowest {
			t.Fatalf("quota %d exceeds min nightly %d for %v", got.Quota, lowest, qs)
		}
		if got.Available != (got.Quota > 0) {
			t.Fatalf("available flag inconsistent: %+v", got)
		}
	}
}

func seedHotel(f *fakeStore) {
	f.addHotel(domain.Hotel{ID: 5, Name: "Harbor View", City: "Shanghai", Status: domain.HotelOnline, Checking: domain.ReviewPublished})
	f.addRoom(domain.RoomType{ID: 11, HotelID: 5, Name: "Twin", Price: 40000, SortOrder: 2, Capacity: 2})
	f.addRoom(domain.RoomType{ID: 10, HotelID: 5, Name: "King", Price: 50000, SortOrder: 1, Capacity: 2})
	f.addNights(10, "2025-06-01", []int{2, 2}, []int64{45000, 0})
	f.addNights(11, "2025-06-01", []int{3}, []int64{0})
}

func TestSnapshot_PerRoomTypeAndIdempotent(t *testing.T) {
	f := newFakeStore()
	seedHotel(f)
	svc := app.NewAvailabilityService(f)
	r := mustRange("2025-06-01", "2025-06-03")

	first, err := svc.Snapshot(context.Background(), 5, r)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []domain.RoomState{
		{RoomTypeID: 10, HotelID: 5, Price: 450, Quota: 2, CheckIn: "2025-06-01", CheckOut: "2025-06-03"},
		{RoomTypeID: 11, HotelID: 5, Price: 400, Quota: 0, CheckIn: "2025-06-01", CheckOut: "2025-06-03"},
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("got %+v\nwant %+v", first, want)
	}

	second, _ := svc.Snapshot(context.Background(), 5, r)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("snapshot not idempotent: %+v vs %+v", first, second)
	}
}

func TestSnapshot_NoDatesAndUnknownHotel(t *testing.T) {
	f := newFakeStore()
	seedHotel(f)
	svc := app.NewAvailabilityService(f)

	st, err := svc.Snapshot(context.Background(), 5, domain.DateRange{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st[0].Quota != domain.UnconstrainedQuota || st[0].Price != 500 || st[0].CheckIn != "" {
		t.Fatalf("unexpected always-available state: %+v", st[0])
	}

	if _, err := svc.Snapshot(context.Background(), 99, domain.DateRange{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_SingleRoomType(t *testing.T) {
	f := newFakeStore()
	seedHotel(f)
	svc := app.NewAvailabilityService(f)

	st, err := svc.Resolve(context.Background(), 10, mustRange("2025-06-02", "2025-06-03"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.Quota != 2 || st.Price != 500 || st.HotelID != 5 {
		t.Fatalf("unexpected: %+v", st)
	}
}
