package kafkaad

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"roomfinder/internal/adapters/observability"
	"roomfinder/internal/domain"
)

var ErrProducerClosed = errors.New("producer closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues messages in memory and writes them from one goroutine.
type Producer struct {
	w        messageWriter
	name     string
	inbox    chan kafka.Message
	stop     chan struct{}
	stopOnce sync.Once
	closeCh  chan struct{}
}

func NewProducer(brokers []string, topic, name string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, name, buf)
}

func newProducer(w messageWriter, name string, buf int) *Producer {
	if buf <= 0 {
		buf = 256
	}
	return &Producer{
		w:       w,
		name:    name,
		inbox:   make(chan kafka.Message, buf),
		stop:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until ctx is done or Close is called; queued
// messages are flushed before the writer closes.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.flush()
				return
			case <-p.stop:
				p.flush()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) flush() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				log.Error().Err(err).Msg("kafka writer close failed")
			}
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		observability.ObserveInventoryEvent("out", "error")
		log.Error().Err(err).Str("key", string(m.Key)).Msg("kafka publish failed")
		return
	}
	observability.ObserveInventoryEvent("out", "ok")
}

// PublishInventoryChanged enqueues ev; it blocks only while the queue is full.
func (p *Producer) PublishInventoryChanged(ctx context.Context, ev domain.InventoryChanged) error {
	b, err := EncodeInventoryChanged(p.name, ev)
	if err != nil {
		return err
	}
	m := kafka.Message{
		Key:   PartitionKey(ev.HotelID),
		Value: b,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(EventInventoryChanged)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	select {
	case <-p.stop:
		return ErrProducerClosed
	default:
	}
	select {
	case p.inbox <- m:
		return nil
	case <-p.stop:
		return ErrProducerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop after flushing what is queued. Safe to call twice.
func (p *Producer) Close() { p.stopOnce.Do(func() { close(p.stop) }) }

// WaitClosed blocks until the write loop has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
