package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is a domain fact delivered to subscribers of its topic.
type Event struct {
	ID         uuid.UUID
	Topic      string
	Payload    any
	OccurredAt time.Time
}

// Handler reacts to an emitted event.
type Handler func(ctx context.Context, event Event) error

// Bus fans domain events out to in-process subscribers synchronously.
type Bus struct {
	Logger zerolog.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
	now      func() time.Time
}

// NewBus constructs an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{Logger: logger, handlers: make(map[string][]Handler), now: time.Now}
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	topic = strings.TrimSpace(topic)
	if b == nil || topic == "" || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Emit dispatches payload to every subscriber of topic. Handler errors and
// panics are collected and never stop delivery to the remaining handlers.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	ev := Event{ID: uuid.New(), Topic: topic, Payload: payload, OccurredAt: now().UTC()}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	var joined error
	for _, h := range handlers {
		if err := b.dispatch(ctx, h, ev); err != nil {
			joined = errors.Join(joined, fmt.Errorf("events: handler: %w", err))
		}
	}
	return ev, joined
}

func (b *Bus) dispatch(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			b.Logger.Error().Str("topic", ev.Topic).Str("event_id", ev.ID.String()).Interface("panic", r).Msg("event_handler_panic")
		}
	}()
	return h(ctx, ev)
}

// Topic is implemented by typed event payloads.
type Topic interface {
	Topic() string
}

// Subscribe registers fn for the topic of E.
func Subscribe[E Topic](b *Bus, fn func(ctx context.Context, e E)) {
	var zero E
	b.Subscribe(zero.Topic(), func(ctx context.Context, ev Event) error {
		e, ok := ev.Payload.(E)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", ev.Payload, ev.Topic)
		}
		fn(ctx, e)
		return nil
	})
}

// Publish emits e on its topic. A nil bus is a no-op.
func Publish[E Topic](ctx context.Context, b *Bus, e E) error {
	if b == nil {
		return nil
	}
	_, err := b.Emit(ctx, e.Topic(), e)
	if err != nil {
		b.Logger.Warn().Err(err).Str("topic", e.Topic()).Msg("event_publish_failed")
	}
	return err
}
