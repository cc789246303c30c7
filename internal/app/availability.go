package app

import (
	"context"
	"fmt"
	"sort"

	"roomfinder/internal/domain"
)

// ResolveRange derives a room type's availability over a range from its ledger rows.
// Fewer rows than nights means a night was never materialized; that is treated as
// sold out rather than unconstrained. A zero range is the always-available mode.
func ResolveRange(rows []domain.LedgerRow, nights int, basePrice int64) domain.RangeState {
	if nights < 1 {
		return domain.RangeState{Quota: domain.UnconstrainedQuota, Price: basePrice, Available: true}
	}
	if len(rows) < nights {
		return domain.RangeState{Quota: 0, Price: minNightlyPrice(rows, basePrice)}
	}
	quota := rows[0].Quota
	for _, r := range rows[1:] {
		if r.Quota < quota {
			quota = r.Quota
		}
	}
	if quota < 0 {
		quota = 0
	}
	return domain.RangeState{
		Quota:     quota,
		Price:     minNightlyPrice(rows, basePrice),
		Available: quota > 0,
	}
}

func minNightlyPrice(rows []domain.LedgerRow, basePrice int64) int64 {
	var p int64
	for _, r := range rows {
		if r.Price > 0 && (p == 0 || r.Price < p) {
			p = r.Price
		}
	}
	if p == 0 {
		return basePrice
	}
	return p
}

type AvailabilityService struct {
	repo domain.InventoryRepository
}

func NewAvailabilityService(r domain.InventoryRepository) *AvailabilityService {
	return &AvailabilityService{repo: r}
}

// Resolve computes one room type's state over r.
func (s *AvailabilityService) Resolve(ctx context.Context, roomTypeID int64, r domain.DateRange) (domain.RoomState, error) {
	rt, err := s.repo.RoomType(ctx, roomTypeID)
	if err != nil {
		return domain.RoomState{}, err
	}
	var rows []domain.LedgerRow
	if r.Nights() > 0 {
		if rows, err = s.repo.LedgerRange(ctx, roomTypeID, r); err != nil {
			return domain.RoomState{}, fmt.Errorf("ledger range for room type %d: %w", roomTypeID, err)
		}
	}
	return roomState(rt, r, ResolveRange(rows, r.Nights(), rt.Price)), nil
}

// Snapshot computes every room type of an online hotel over r, ordered by the
// room types' sortOrder. Two calls over an unchanged ledger return equal states.
func (s *AvailabilityService) Snapshot(ctx context.Context, hotelID int64, r domain.DateRange) ([]domain.RoomState, error) {
	if _, err := s.repo.OnlineHotel(ctx, hotelID); err != nil {
		return nil, err
	}
	rts, err := s.repo.HotelRoomTypes(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("room types for hotel %d: %w", hotelID, err)
	}
	byRoom := map[int64][]domain.LedgerRow{}
	if r.Nights() > 0 && len(rts) > 0 {
		rows, err := s.repo.HotelLedger(ctx, hotelID, r)
		if err != nil {
			return nil, fmt.Errorf("ledger for hotel %d: %w", hotelID, err)
		}
		for _, row := range rows {
			byRoom[row.RoomTypeID] = append(byRoom[row.RoomTypeID], row)
		}
	}

	sort.SliceStable(rts, func(i, j int) bool {
		if rts[i].SortOrder != rts[j].SortOrder {
			return rts[i].SortOrder < rts[j].SortOrder
		}
		return rts[i].ID < rts[j].ID
	})
	out := make([]domain.RoomState, 0, len(rts))
	for _, rt := range rts {
		out = append(out, roomState(rt, r, ResolveRange(byRoom[rt.ID], r.Nights(), rt.Price)))
	}
	return out, nil
}

func roomState(rt domain.RoomType, r domain.DateRange, st domain.RangeState) domain.RoomState {
	return domain.RoomState{
		RoomTypeID: rt.ID,
		HotelID:    rt.HotelID,
		Price:      domain.ToMajor(st.Price),
		Quota:      st.Quota,
		CheckIn:    r.From(),
		CheckOut:   r.To(),
	}
}
