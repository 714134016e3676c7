// Package notify delivers domain events to staff channels. Delivery is best
// effort: it never blocks the write that produced the event and failures
// are only logged and counted.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aura/internal/events"
	"aura/internal/metrics"
)

type Sender interface {
	Name() string
	Send(ctx context.Context, e events.Event) error
}

// Dispatcher fans each event out to every sender on its own goroutine.
type Dispatcher struct {
	senders []Sender
	timeout time.Duration
	logger  *zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, logger *zerolog.Logger, senders ...Sender) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{senders: senders, timeout: timeout, logger: logger}
}

// Senders lists the configured sender names.
func (d *Dispatcher) Senders() []string {
	names := make([]string, 0, len(d.senders))
	for _, s := range d.senders {
		names = append(names, s.Name())
	}
	return names
}

// Handle starts delivery of e and returns immediately. It has the
// events.Handler signature so it can be subscribed to a bus directly.
// The request context is not used for delivery: sends outlive the request.
func (d *Dispatcher) Handle(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn().Str("event", string(e.Type)).Msg("dispatcher closed, dropping event")
		return nil
	}
	for _, s := range d.senders {
		d.wg.Add(1)
		go d.send(s, e)
	}
	return nil
}

func (d *Dispatcher) send(s Sender, e events.Event) {
	defer d.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return s.Send(ctx, e)
	}()

	log := d.logger.With().
		Str("sender", s.Name()).
		Str("event", string(e.Type)).
		Str("event_id", e.ID).
		Dur("took", time.Since(start)).
		Logger()
	if err != nil {
		metrics.IncNotification(s.Name(), "error")
		log.Error().Err(err).Msg("notification failed")
		return
	}
	metrics.IncNotification(s.Name(), "ok")
	log.Debug().Msg("notification sent")
}

// Close stops accepting events and waits for in-flight sends or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
