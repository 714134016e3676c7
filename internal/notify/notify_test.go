package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"aura/internal/events"
	"aura/internal/models"
)

type funcSender struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, e events.Event) error
}

func (s *funcSender) Name() string { return s.name }

func (s *funcSender) Send(ctx context.Context, e events.Event) error {
	s.calls.Add(1)
	return s.fn(ctx, e)
}

func sampleReservation() events.Event {
	return events.Event{
		ID:   "evt-1",
		Type: events.ReservationCreated,
		Reservation: &models.Reservation{
			ID: 7, UserID: 11, Date: models.NewDate(2026, time.March, 9), Time: "19:00",
			Guests: 4, Status: models.ReservationPending, SpecialRequests: "high chair",
		},
		Actor:     "Ana Horvat",
		CreatedAt: time.Date(2026, time.March, 4, 15, 20, 0, 0, time.UTC),
	}
}

func TestDispatcher_FireAndForget(t *testing.T) {
	release := make(chan struct{})
	slow := &funcSender{name: "slow", fn: func(ctx context.Context, _ events.Event) error {
		<-release
		return nil
	}}
	failing := &funcSender{name: "failing", fn: func(context.Context, events.Event) error { return errors.New("boom") }}
	panicking := &funcSender{name: "panicking", fn: func(context.Context, events.Event) error { panic("bad sender") }}

	d := NewDispatcher(time.Second, nil, slow, failing, panicking)
	assert.Equal(t, []string{"slow", "failing", "panicking"}, d.Senders())

	start := time.Now()
	require.NoError(t, d.Handle(context.Background(), sampleReservation()))
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Handle must not wait for senders")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded, "slow sender still running")

	close(release)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(1), slow.calls.Load())
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(1), panicking.calls.Load())

	require.NoError(t, d.Handle(context.Background(), sampleReservation()))
	assert.Equal(t, int32(1), failing.calls.Load(), "closed dispatcher drops events")
}

func TestDispatcher_TimeoutBoundsSends(t *testing.T) {
	var gotErr error
	var mu sync.Mutex
	stuck := &funcSender{name: "stuck", fn: func(ctx context.Context, _ events.Event) error {
		<-ctx.Done()
		mu.Lock()
		gotErr = ctx.Err()
		mu.Unlock()
		return ctx.Err()
	}}
	d := NewDispatcher(10*time.Millisecond, nil, stuck)
	require.NoError(t, d.Handle(context.Background(), sampleReservation()))
	require.NoError(t, d.Close(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, gotErr, context.DeadlineExceeded)
}

func TestDispatcher_SubscribedToBus(t *testing.T) {
	got := make(chan events.Event, 1)
	s := &funcSender{name: "chan", fn: func(_ context.Context, e events.Event) error {
		got <- e
		return nil
	}}
	d := NewDispatcher(time.Second, nil, s)
	bus := events.NewBus(nil)
	bus.SubscribeAll(d.Handle)

	bus.Publish(context.Background(), events.Event{Type: events.OrderCreated, Order: &models.Order{ID: 3}})
	select {
	case e := <-got:
		assert.Equal(t, int64(3), e.Order.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	require.NoError(t, d.Close(context.Background()))
}

func TestSummary(t *testing.T) {
	text := Summary(sampleReservation())
	assert.Contains(t, text, "New reservation #7")
	assert.Contains(t, text, "2026-03-09 at 19:00, 4 guests")
	assert.Contains(t, text, "Requests: high chair")
	assert.Contains(t, text, "By: Ana Horvat")

	order := events.Event{Type: events.OrderUpdated, Order: &models.Order{
		ID: 3, CustomerName: "Marko", Phone: "091", DeliveryAddress: "Vlaška 12",
		Status: models.OrderPreparing, Total: 1950,
		Items: []models.OrderItem{{Name: "Riblja juha", Quantity: 3}},
	}}
	text = Summary(order)
	assert.Contains(t, text, "Order updated #3")
	assert.Contains(t, text, "total 19.50 EUR")
	assert.Contains(t, text, "3 x Riblja juha")
}

func TestAMQPPublishing(t *testing.T) {
	msg, err := publishing(sampleReservation())
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "evt-1", msg.MessageId)
	assert.Equal(t, "reservation.created", msg.Type)
	assert.EqualValues(t, 2, msg.DeliveryMode)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, int64(7), decoded.Reservation.ID)
	assert.Equal(t, "2026-03-09", decoded.Reservation.Date.String())
}

type mockTelegram struct {
	mock.Mock
}

func (m *mockTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func TestTelegramSender(t *testing.T) {
	client := new(mockTelegram)
	client.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return c.(tgbotapi.MessageConfig).ChatID == 100
	})).Return(nil)
	client.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		return c.(tgbotapi.MessageConfig).ChatID == 200
	})).Return(errors.New("chat not found"))

	s := NewTelegramSenderWithClient(client, []int64{100, 200}, nil)
	err := s.Send(context.Background(), sampleReservation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 200")
	client.AssertNumberOfCalls(t, "Send", 2)

	msg := client.Calls[0].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, "New reservation #7")
}

func TestSheetsSender(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		body  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		body = string(b)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	s, err := NewSheetsSenderWithOptions(ctx, "sheet-123", "Reservations",
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	require.NoError(t, s.Send(ctx, sampleReservation()))
	require.NoError(t, s.Send(ctx, events.Event{Type: events.OrderCreated, Order: &models.Order{ID: 1}}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1, "order events are not mirrored")
	assert.Contains(t, paths[0], "sheet-123")
	assert.True(t, strings.HasSuffix(paths[0], ":append"), paths[0])
	assert.Contains(t, body, "2026-03-09")
	assert.Contains(t, body, "high chair")
}

func TestReservationRowValues(t *testing.T) {
	row := reservationRowValues(sampleReservation())
	assert.Equal(t, []interface{}{
		"reservation.created", int64(7), int64(11), "2026-03-09", "19:00", 4, "Pending", 0, "high chair", "2026-03-04 15:20:00",
	}, row)
}
