// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"roomfinder/internal/app"
	"roomfinder/internal/domain"
	"roomfinder/internal/realtime"
)

const maxBodyBytes = 1 << 20

type Searcher interface {
	Search(ctx context.Context, f domain.SearchFilters) domain.SearchResult
}

type Booker interface {
	Book(ctx context.Context, roomTypeID int64, checkIn, checkOut string) (domain.Booking, error)
}

type Snapshotter interface {
	Snapshot(ctx context.Context, hotelID int64, r domain.DateRange) ([]domain.RoomState, error)
}

type Handlers struct {
	Search  Searcher
	Booking Booker
	Avail   Snapshotter
	Hub     *realtime.Hub
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientInventory):
		writeProblem(w, http.StatusBadRequest, "Insufficient Inventory", err.Error())
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// search never rejects a body: anything undecodable is an empty filter set.
func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			log.Debug().Err(err).Msg("search body not a JSON object; using defaults")
			body = map[string]any{}
		}
	}
	writeJSON(w, http.StatusOK, h.Search.Search(r.Context(), app.ParseSearchFilters(body)))
}

type bookRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

func (h *Handlers) book(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomTypeId")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomTypeId must be a positive number")
		return
	}
	var req bookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "body must be {checkIn, checkOut}")
		return
	}
	b, err := h.Booking.Book(r.Context(), id, req.CheckIn, req.CheckOut)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type hotelRoomsResponse struct {
	HotelID  int64              `json:"hotelId"`
	CheckIn  string             `json:"checkIn"`
	CheckOut string             `json:"checkOut"`
	Rooms    []domain.RoomState `json:"rooms"`
}

// hotelRooms is the detail-page pricing view; same computation as the realtime snapshot.
func (h *Handlers) hotelRooms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "hotelId")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "hotelId must be a positive number")
		return
	}
	rng := domain.OptionalDateRange(r.URL.Query().Get("checkIn"), r.URL.Query().Get("checkOut"))
	rooms, err := h.Avail.Snapshot(r.Context(), id, rng)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(hotelRoomsResponse{HotelID: id, CheckIn: rng.From(), CheckOut: rng.To(), Rooms: rooms})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write hotelRooms body")
	}
}

// streamRooms holds the connection open and relays the group's events until the
// client leaves, a write fails, or the hub drops the subscription.
func (h *Handlers) streamRooms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "hotelId")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "hotelId must be a positive number")
		return
	}
	rng := domain.OptionalDateRange(r.URL.Query().Get("checkIn"), r.URL.Query().Get("checkOut"))
	key := realtime.GroupKey{HotelID: id, CheckIn: rng.From(), CheckOut: rng.To()}

	// Subscribe before reading so no update committed after the read is missed.
	// Updates queued meanwhile are relayed after the snapshot.
	sub := h.Hub.Subscribe(key)
	defer sub.Unsubscribe()

	rooms, err := h.Avail.Snapshot(r.Context(), id, rng)
	if err != nil {
		writeError(w, err)
		return
	}

	es, ok := newEventStream(w)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming Unsupported", "")
		return
	}
	snap := realtime.SnapshotEvent(key, rooms)
	if err := es.send(snap.Name, snap.Data); err != nil {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if err := es.send(ev.Name, ev.Data); err != nil {
				log.Debug().Err(err).Str("group", key.String()).Msg("realtime write failed; closing stream")
				return
			}
		}
	}
}
