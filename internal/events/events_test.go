package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/models"
)

func TestBus_PublishRoutesByType(t *testing.T) {
	bus := NewBus(nil)

	var created, all []Event
	bus.Subscribe(ReservationCreated, func(_ context.Context, e Event) error {
		created = append(created, e)
		return nil
	})
	bus.SubscribeAll(func(_ context.Context, e Event) error {
		all = append(all, e)
		return errors.New("ignored")
	})

	bus.Publish(context.Background(), Event{Type: ReservationCreated, Reservation: &models.Reservation{ID: 7}})
	bus.Publish(context.Background(), Event{Type: OrderCreated, Order: &models.Order{ID: 3}})

	require.Len(t, created, 1)
	assert.Equal(t, int64(7), created[0].Reservation.ID)
	assert.NotEmpty(t, created[0].ID)
	assert.False(t, created[0].CreatedAt.IsZero())
	assert.Len(t, all, 2, "handler errors do not stop delivery")
}

func TestBus_NoSubscribers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewBus(nil).Publish(context.Background(), Event{Type: OrderUpdated})
	})
}
