package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"roomfinder/internal/domain"
	"roomfinder/internal/realtime"
)

// RealtimeNotifier recomputes room state for open realtime groups after a ledger
// mutation and pushes it through the hub.
type RealtimeNotifier struct {
	avail *AvailabilityService
	hub   *realtime.Hub
}

func NewRealtimeNotifier(a *AvailabilityService, h *realtime.Hub) *RealtimeNotifier {
	return &RealtimeNotifier{avail: a, hub: h}
}

// InventoryChanged updates every group of the hotel whose range overlaps the
// mutated one. Each group gets state computed over its own range.
func (n *RealtimeNotifier) InventoryChanged(ctx context.Context, ev domain.InventoryChanged) {
	changed := domain.OptionalDateRange(ev.CheckIn, ev.CheckOut)
	for _, key := range n.hub.Groups(ev.HotelID) {
		exact := key.CheckIn == ev.CheckIn && key.CheckOut == ev.CheckOut
		rng := key.Range()
		if !exact && !rng.Overlaps(changed) {
			continue
		}
		st, err := n.avail.Resolve(ctx, ev.RoomTypeID, rng)
		if err != nil {
			log.Warn().Err(err).
				Str("group", key.String()).
				Int64("room_type_id", ev.RoomTypeID).
				Msg("realtime recompute failed")
			continue
		}
		n.hub.BroadcastRoomUpdate(key, st)
	}
}

// Notifiers fans one change out to several notifiers in order.
type Notifiers []domain.InventoryNotifier

func (ns Notifiers) InventoryChanged(ctx context.Context, ev domain.InventoryChanged) {
	for _, n := range ns {
		n.InventoryChanged(ctx, ev)
	}
}
