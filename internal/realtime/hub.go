package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"roomfinder/internal/adapters/observability"
	"roomfinder/internal/domain"
)

const (
	EventSnapshot   = "snapshot"
	EventRoomUpdate = "room_update"
	EventPing       = "ping"
)

// GroupKey identifies a broadcast channel. Equality is exact on all three fields.
type GroupKey struct {
	HotelID  int64
	CheckIn  string
	CheckOut string
}

func (k GroupKey) String() string { return fmt.Sprintf("%d:%s:%s", k.HotelID, k.CheckIn, k.CheckOut) }

// Range parses the key's dates; keys without dates yield the zero range.
func (k GroupKey) Range() domain.DateRange { return domain.OptionalDateRange(k.CheckIn, k.CheckOut) }

type Event struct {
	Name string
	Data any
}

type SnapshotPayload struct {
	HotelID  int64              `json:"hotelId"`
	CheckIn  string             `json:"checkIn"`
	CheckOut string             `json:"checkOut"`
	Rooms    []domain.RoomState `json:"rooms"`
}

type RoomUpdatePayload struct {
	domain.RoomState
	EventID   string    `json:"eventId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PingPayload struct {
	Ts int64 `json:"ts"`
}

// Subscription is one open stream. It is Open while registered and Closed once
// its events channel has been closed by the hub.
type Subscription struct {
	ID     uint64
	Key    GroupKey
	events chan Event
	hub    *Hub
}

// Events is closed when the subscription is removed for any reason.
func (s *Subscription) Events() <-chan Event { return s.events }

// Unsubscribe deregisters synchronously; no push is attempted afterwards. Safe to call twice.
func (s *Subscription) Unsubscribe() { s.hub.remove(s, "") }

// Hub is the in-process registry of realtime subscribers, grouped by GroupKey.
type Hub struct {
	mu        sync.RWMutex
	groups    map[GroupKey]map[uint64]*Subscription
	nextID    atomic.Uint64
	buffer    int
	heartbeat time.Duration
	now       func() time.Time
}

func NewHub(buffer int, heartbeat time.Duration) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		groups:    make(map[GroupKey]map[uint64]*Subscription),
		buffer:    buffer,
		heartbeat: heartbeat,
		now:       time.Now,
	}
}

func (h *Hub) Subscribe(key GroupKey) *Subscription {
	s := &Subscription{
		ID:     h.nextID.Add(1),
		Key:    key,
		events: make(chan Event, h.buffer),
		hub:    h,
	}
	h.mu.Lock()
	g, ok := h.groups[key]
	if !ok {
		g = make(map[uint64]*Subscription)
		h.groups[key] = g
	}
	g[s.ID] = s
	h.mu.Unlock()

	observability.RealtimeSubscribers.Inc()
	log.Debug().Str("group", key.String()).Uint64("sub", s.ID).Msg("realtime subscribed")
	return s
}

// SnapshotEvent wraps the full per-room state of one group.
func SnapshotEvent(key GroupKey, rooms []domain.RoomState) Event {
	if rooms == nil {
		rooms = []domain.RoomState{}
	}
	return Event{Name: EventSnapshot, Data: SnapshotPayload{
		HotelID:  key.HotelID,
		CheckIn:  key.CheckIn,
		CheckOut: key.CheckOut,
		Rooms:    rooms,
	}}
}

// BroadcastSnapshot pushes a full recompute to every subscriber of key. A newly
// joined client gets its own snapshot from the stream handler instead.
func (h *Hub) BroadcastSnapshot(key GroupKey, rooms []domain.RoomState) int {
	return h.broadcast(key, SnapshotEvent(key, rooms))
}

// BroadcastRoomUpdate pushes one room type's new state to every subscriber of key.
func (h *Hub) BroadcastRoomUpdate(key GroupKey, st domain.RoomState) int {
	return h.broadcast(key, Event{Name: EventRoomUpdate, Data: RoomUpdatePayload{
		RoomState: st,
		EventID:   uuid.NewString(),
		UpdatedAt: h.now().UTC(),
	}})
}

// Groups lists the active group keys for a hotel.
func (h *Hub) Groups(hotelID int64) []GroupKey {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []GroupKey
	for k := range h.groups {
		if k.HotelID == hotelID {
			out = append(out, k)
		}
	}
	return out
}

// Count returns the number of open subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, g := range h.groups {
		n += len(g)
	}
	return n
}

// Run emits heartbeats until ctx is done, then closes every subscription.
func (h *Hub) Run(ctx context.Context) {
	if h.heartbeat <= 0 {
		<-ctx.Done()
		h.Close()
		return
	}
	t := time.NewTicker(h.heartbeat)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.Close()
			return
		case <-t.C:
			h.Ping()
		}
	}
}

// Ping sends a keep-alive to every subscriber.
func (h *Hub) Ping() {
	ev := Event{Name: EventPing, Data: PingPayload{Ts: h.now().UnixMilli()}}
	h.mu.RLock()
	var slow []*Subscription
	for _, g := range h.groups {
		for _, s := range g {
			if !offer(s, ev) {
				slow = append(slow, s)
			}
		}
	}
	h.mu.RUnlock()
	h.dropAll(slow, EventPing)
}

// Close removes all subscriptions, closing their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	n := 0
	for k, g := range h.groups {
		for id, s := range g {
			close(s.events)
			delete(g, id)
			n++
		}
		delete(h.groups, k)
	}
	h.mu.Unlock()
	observability.RealtimeSubscribers.Sub(float64(n))
}

// broadcast sends under the read lock; channels are only closed under the write
// lock, so a concurrent removal can never race a send.
func (h *Hub) broadcast(key GroupKey, ev Event) int {
	h.mu.RLock()
	sent := 0
	var slow []*Subscription
	for _, s := range h.groups[key] {
		if offer(s, ev) {
			sent++
			continue
		}
		slow = append(slow, s)
	}
	h.mu.RUnlock()
	h.dropAll(slow, ev.Name)
	return sent
}

func offer(s *Subscription, ev Event) bool {
	select {
	case s.events <- ev:
		observability.ObserveRealtime(ev.Name, "sent")
		return true
	default:
		return false
	}
}

func (h *Hub) dropAll(slow []*Subscription, event string) {
	for _, s := range slow {
		observability.ObserveRealtime(event, "dropped")
		h.remove(s, "buffer full")
	}
}

func (h *Hub) remove(s *Subscription, reason string) {
	h.mu.Lock()
	g := h.groups[s.Key]
	if _, ok := g[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(g, s.ID)
	if len(g) == 0 {
		delete(h.groups, s.Key)
	}
	close(s.events)
	h.mu.Unlock()

	observability.RealtimeSubscribers.Dec()
	if reason != "" {
		log.Warn().Str("group", s.Key.String()).Uint64("sub", s.ID).Str("reason", reason).Msg("realtime subscriber dropped")
	}
}
