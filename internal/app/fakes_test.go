package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"roomfinder/internal/domain"
)

// ---- in-memory store ----

type fakeStore struct {
	mu     sync.Mutex
	hotels map[int64]domain.Hotel
	rooms  map[int64]domain.RoomType
	ledger map[int64]map[string]domain.LedgerRow

	tiers    map[string][]domain.HotelCandidate
	tierErrs map[string]error
	calls    []string
	queries  map[string]domain.TierQuery
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hotels:   map[int64]domain.Hotel{},
		rooms:    map[int64]domain.RoomType{},
		ledger:   map[int64]map[string]domain.LedgerRow{},
		tiers:    map[string][]domain.HotelCandidate{},
		tierErrs: map[string]error{},
		queries:  map[string]domain.TierQuery{},
	}
}

func (f *fakeStore) addHotel(h domain.Hotel) { f.hotels[h.ID] = h }

func (f *fakeStore) addRoom(rt domain.RoomType) { f.rooms[rt.ID] = rt }

// addNights materializes consecutive nights starting at from.
func (f *fakeStore) addNights(roomTypeID int64, from string, quotas []int, prices []int64) {
	start, _ := domain.ParseDate(from)
	if f.ledger[roomTypeID] == nil {
		f.ledger[roomTypeID] = map[string]domain.LedgerRow{}
	}
	for i, q := range quotas {
		d := start.AddDate(0, 0, i)
		var p int64
		if i < len(prices) {
			p = prices[i]
		}
		f.ledger[roomTypeID][d.Format(domain.DateLayout)] = domain.LedgerRow{RoomTypeID: roomTypeID, Date: d, Quota: q, Price: p}
	}
}

func (f *fakeStore) quota(roomTypeID int64, date string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ledger[roomTypeID][date].Quota
}

func (f *fakeStore) OnlineHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, ok := f.hotels[id]
	if !ok || h.Status != domain.HotelOnline {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (f *fakeStore) RoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	rt, ok := f.rooms[id]
	if !ok {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, nil
}

func (f *fakeStore) HotelRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	var out []domain.RoomType
	for _, rt := range f.rooms {
		if rt.HotelID == hotelID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (f *fakeStore) rangeRows(roomTypeID int64, r domain.DateRange) []domain.LedgerRow {
	var out []domain.LedgerRow
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		if row, ok := f.ledger[roomTypeID][d.Format(domain.DateLayout)]; ok {
			out = append(out, row)
		}
	}
	return out
}

func (f *fakeStore) LedgerRange(ctx context.Context, roomTypeID int64, r domain.DateRange) ([]domain.LedgerRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rangeRows(roomTypeID, r), nil
}

func (f *fakeStore) HotelLedger(ctx context.Context, hotelID int64, r domain.DateRange) ([]domain.LedgerRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id, rt := range f.rooms {
		if rt.HotelID == hotelID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []domain.LedgerRow
	for _, id := range ids {
		out = append(out, f.rangeRows(id, r)...)
	}
	return out, nil
}

func (f *fakeStore) BookableRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	rt, ok := f.rooms[id]
	if !ok || !f.hotels[rt.HotelID].Bookable() {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, nil
}

func (f *fakeStore) BookRange(ctx context.Context, roomTypeID int64, r domain.DateRange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.rangeRows(roomTypeID, r)
	if len(rows) < r.Nights() {
		return fmt.Errorf("%w: missing nights", domain.ErrInsufficientInventory)
	}
	for _, row := range rows {
		if row.Quota <= 0 {
			return fmt.Errorf("%w: sold out on %s", domain.ErrInsufficientInventory, row.Date.Format(domain.DateLayout))
		}
	}
	for _, row := range rows {
		row.Quota--
		f.ledger[roomTypeID][row.Date.Format(domain.DateLayout)] = row
	}
	return nil
}

func (f *fakeStore) tier(name string, q domain.TierQuery) ([]domain.HotelCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.queries[name] = q
	if err := f.tierErrs[name]; err != nil {
		return nil, err
	}
	return f.tiers[name], nil
}

func (f *fakeStore) SearchExact(ctx context.Context, q domain.TierQuery) ([]domain.HotelCandidate, error) {
	return f.tier("exact", q)
}

func (f *fakeStore) SearchStatic(ctx context.Context, q domain.TierQuery) ([]domain.HotelCandidate, error) {
	return f.tier("static", q)
}

func (f *fakeStore) SearchGlobal(ctx context.Context, q domain.TierQuery) ([]domain.HotelCandidate, error) {
	return f.tier("global", q)
}

// ---- cache ----

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

// ---- notifier / events ----

type recordingNotifier struct {
	ch chan domain.InventoryChanged
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan domain.InventoryChanged, 16)}
}

func (n *recordingNotifier) InventoryChanged(ctx context.Context, ev domain.InventoryChanged) {
	n.ch <- ev
}

type failingEvents struct{ calls int }

func (e *failingEvents) PublishInventoryChanged(ctx context.Context, ev domain.InventoryChanged) error {
	e.calls++
	return fmt.Errorf("broker unavailable")
}

func mustRange(in, out string) domain.DateRange {
	r, err := domain.NewDateRange(in, out)
	if err != nil {
		panic(err)
	}
	return r
}

func day(s string) time.Time {
	t, _ := domain.ParseDate(s)
	return t
}
