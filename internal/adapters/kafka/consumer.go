package kafkaad

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"roomfinder/internal/adapters/observability"
	"roomfinder/internal/domain"
)

// Handler returns nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
}

// NewConsumer reads topic as group. Every API instance needs its own group so
// each one sees every inventory change.
func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
		StartOffset:    kafka.LastOffset,
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

// Start dispatches messages to workers until ctx is done.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				if err := h(ctx, m); err != nil {
					log.Warn().Err(err).Int64("offset", m.Offset).Msg("inventory event handler failed")
					time.Sleep(200 * time.Millisecond)
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
					log.Warn().Err(err).Int64("offset", m.Offset).Msg("kafka commit failed")
				}
			}
		}()
	}
	defer wg.Wait()
	defer close(jobs)

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// InventoryHandler relays changes published by other instances to the local notifier.
func InventoryHandler(self string, n domain.InventoryNotifier) Handler {
	return func(ctx context.Context, m kafka.Message) error {
		ev, ok, err := DecodeInventoryChanged(m.Value, self)
		if err != nil {
			observability.ObserveInventoryEvent("in", "error")
			// poison message: log and commit past it
			log.Error().Err(err).Int64("offset", m.Offset).Msg("undecodable inventory event")
			return nil
		}
		if !ok {
			observability.ObserveInventoryEvent("in", "skipped")
			return nil
		}
		n.InventoryChanged(ctx, ev)
		observability.ObserveInventoryEvent("in", "ok")
		return nil
	}
}
