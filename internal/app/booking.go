package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"roomfinder/internal/adapters/observability"
	"roomfinder/internal/domain"
)

type BookingService struct {
	repo          domain.InventoryRepository
	notifier      domain.InventoryNotifier
	events        domain.InventoryEvents
	notifyTimeout time.Duration
	wg            sync.WaitGroup
}

// NewBookingService wires the transactor. notifier and events may be nil.
func NewBookingService(r domain.InventoryRepository, n domain.InventoryNotifier, e domain.InventoryEvents, notifyTimeout time.Duration) *BookingService {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &BookingService{repo: r, notifier: n, events: e, notifyTimeout: notifyTimeout}
}

// Book reserves one room of roomTypeID for every night in [checkIn, checkOut).
// Either every night is decremented or none is.
func (s *BookingService) Book(ctx context.Context, roomTypeID int64, checkIn, checkOut string) (domain.Booking, error) {
	rng, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		observability.ObserveBooking("invalid")
		return domain.Booking{}, err
	}

	rt, err := s.repo.BookableRoomType(ctx, roomTypeID)
	if err != nil {
		observability.ObserveBooking(bookingResult(err))
		return domain.Booking{}, err
	}

	if err := s.repo.BookRange(ctx, rt.ID, rng); err != nil {
		observability.ObserveBooking(bookingResult(err))
		return domain.Booking{}, err
	}
	observability.ObserveBooking("ok")

	b := domain.Booking{
		HotelID:    rt.HotelID,
		RoomTypeID: rt.ID,
		CheckIn:    rng.From(),
		CheckOut:   rng.To(),
		Nights:     rng.Nights(),
	}
	log.Info().
		Int64("hotel_id", b.HotelID).
		Int64("room_type_id", b.RoomTypeID).
		Str("check_in", b.CheckIn).
		Str("check_out", b.CheckOut).
		Msg("booking committed")

	s.afterCommit(domain.InventoryChanged{
		HotelID:    b.HotelID,
		RoomTypeID: b.RoomTypeID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Reason:     "booking",
		OccurredAt: time.Now().UTC(),
	})
	return b, nil
}

// afterCommit fans the change out in the background; failures are logged only.
func (s *BookingService) afterCommit(ev domain.InventoryChanged) {
	if s.notifier == nil && s.events == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if s.notifier != nil {
			s.notifier.InventoryChanged(ctx, ev)
		}
		if s.events != nil {
			if err := s.events.PublishInventoryChanged(ctx, ev); err != nil {
				log.Error().Err(err).Int64("room_type_id", ev.RoomTypeID).Msg("publish inventory change failed")
			}
		}
	}()
}

// Wait blocks until in-flight post-commit notifications have finished.
func (s *BookingService) Wait() { s.wg.Wait() }

func bookingResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientInventory):
		return "insufficient"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
