package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"aura/internal/events"
)

// AMQPSender publishes events to a durable topic exchange with the event
// type as routing key and waits for the broker's confirm.
type AMQPSender struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	acks <-chan amqp.Confirmation
	mu   sync.Mutex // confirms arrive in publish order
}

func DialAMQP(url, exchange string) (*AMQPSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return &AMQPSender{conn: conn, ch: ch, exchange: exchange, acks: acks}, nil
}

func (s *AMQPSender) Name() string { return "amqp" }

// Ping reports whether the connection is still open.
func (s *AMQPSender) Ping() error {
	if s.conn == nil || s.conn.IsClosed() {
		return errors.New("amqp connection is closed")
	}
	return nil
}

func (s *AMQPSender) Send(ctx context.Context, e events.Event) error {
	msg, err := publishing(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ch.PublishWithContext(ctx, s.exchange, string(e.Type), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	select {
	case conf, ok := <-s.acks:
		if !ok {
			return errors.New("amqp channel closed before confirm")
		}
		if !conf.Ack {
			return fmt.Errorf("publish %s: nack from broker", e.Type)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func publishing(e events.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s: %w", e.Type, err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    e.ID,
		Type:         string(e.Type),
		Timestamp:    e.CreatedAt,
		Body:         body,
	}, nil
}

func (s *AMQPSender) Close() {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
