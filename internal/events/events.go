// Package events carries cache-invalidation signals emitted after every
// ledger mutation.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	UserRegistered     Kind = "user.registered"
	RequestCreated     Kind = "request.created"
	RequestUpdated     Kind = "request.updated"
	PatientSaved       Kind = "patient.saved"
	AppointmentCreated Kind = "appointment.created"
	AppointmentUpdated Kind = "appointment.updated"
)

type Event struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	EntityID       int64     `json:"entity_id"`
	PsychologistID int64     `json:"psychologist_id"`
	At             time.Time `json:"at"`
}

func New(kind Kind, entityID, psychologistID int64) Event {
	return Event{
		ID:             uuid.NewString(),
		Kind:           kind,
		EntityID:       entityID,
		PsychologistID: psychologistID,
		At:             time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Bus fans events out to in-process subscribers. Slow subscribers lose
// events rather than block publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	buf  int
}

func NewBus(buf int) *Bus {
	if buf <= 0 {
		buf = 16
	}
	return &Bus{subs: make(map[chan Event]struct{}), buf: buf}
}

func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel that is closed once ctx is done.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.buf)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch
}

func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
