package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aura/internal/models"
)

type Type string

const (
	ReservationCreated Type = "reservation.created"
	ReservationUpdated Type = "reservation.updated"
	OrderCreated       Type = "order.created"
	OrderUpdated       Type = "order.updated"
)

// Event is a lightweight domain event. Exactly one of Reservation and Order
// is set, matching Type.
type Event struct {
	ID          string              `json:"id"`
	Type        Type                `json:"type"`
	Actor       string              `json:"actor,omitempty"`
	Reservation *models.Reservation `json:"reservation,omitempty"`
	Order       *models.Order       `json:"order,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Handler reacts to an event.
type Handler func(ctx context.Context, event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[Type][]Handler
	all         []Handler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewBus constructs an empty bus.
func NewBus(logger *zerolog.Logger) *Bus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bus{subscribers: make(map[Type][]Handler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish notifies subscribers of the event type. Handlers run synchronously
// and their errors are logged, never returned; handlers that do slow work
// must hand it off themselves.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.Error().Err(err).Str("event", string(event.Type)).Str("event_id", event.ID).Msg("event handler failed")
		}
	}
}
