package kafkaad

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"roomfinder/internal/domain"
)

const EventInventoryChanged = "inventory.changed"

// Envelope wraps every message on the inventory topic.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"` // instance that emitted it
	Payload      json.RawMessage `json:"payload"`
}

// PartitionKey keeps one hotel's changes ordered on a single partition.
func PartitionKey(hotelID int64) []byte { return []byte(strconv.FormatInt(hotelID, 10)) }

func EncodeInventoryChanged(producer string, ev domain.InventoryChanged) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventInventoryChanged,
		EventVersion: 1,
		OccurredAt:   at,
		Producer:     producer,
		Payload:      payload,
	})
}

// DecodeInventoryChanged returns ok=false for other event types and for events
// this instance produced itself.
func DecodeInventoryChanged(b []byte, self string) (domain.InventoryChanged, bool, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return domain.InventoryChanged{}, false, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != EventInventoryChanged || (self != "" && env.Producer == self) {
		return domain.InventoryChanged{}, false, nil
	}
	var ev domain.InventoryChanged
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return domain.InventoryChanged{}, false, fmt.Errorf("decode payload: %w", err)
	}
	return ev, true, nil
}
