package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by the services.
const (
	EventReservationCreated = "reservation.created"
	EventReservationUpdated = "reservation.updated"
	EventReservationDeleted = "reservation.deleted"
	EventReservationsSynced = "reservations.synced"
	EventRouteDeleted       = "route.deleted"
	EventRouteCleared       = "route.cleared"
	EventDocumentAccepted   = "document.accepted"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func NewEvent(eventType string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// EventPublisher delivers domain events to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// publish sends an event and only logs failures; a lost notification never
// fails the write that caused it.
func publish(ctx context.Context, p EventPublisher, eventType string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, NewEvent(eventType, data)); err != nil {
		log.Printf("⚠️ publish %s failed: %v", eventType, err)
	}
}

// ErrPublishQueueFull is returned when AsyncPublisher has no room left.
var ErrPublishQueueFull = errors.New("event queue full")

// AsyncPublisher hands events to next from a background goroutine, so a slow
// broker never holds up the request that produced them. Events that do not
// fit in the buffer are dropped.
type AsyncPublisher struct {
	next    EventPublisher
	timeout time.Duration
	queue   chan Event
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewAsyncPublisher(next EventPublisher, buffer int, timeout time.Duration) *AsyncPublisher {
	p := &AsyncPublisher{
		next:    next,
		timeout: timeout,
		queue:   make(chan Event, buffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish queues ev and returns at once. The request context is not passed
// on; delivery happens after the response is written.
func (p *AsyncPublisher) Publish(_ context.Context, ev Event) error {
	select {
	case p.queue <- ev:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Close delivers what is already queued and stops the worker, or gives up
// when ctx ends.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.once.Do(func() { close(p.stop) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for {
		select {
		case ev := <-p.queue:
			p.deliver(ev)
		case <-p.stop:
			for {
				select {
				case ev := <-p.queue:
					p.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (p *AsyncPublisher) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.next.Publish(ctx, ev); err != nil {
		log.Printf("⚠️ publish %s failed: %v", ev.Type, err)
	}
}
