// Package notify announces finished refresh cycles to interested consumers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Cycle outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const (
	defaultExchange = "consolidator.cycles"
	publishTimeout  = 5 * time.Second
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// CycleEvent is the message published after every refresh cycle.
type CycleEvent struct {
	TriggerID    string    `json:"trigger_id"`
	Reason       string    `json:"reason"`
	Outcome      string    `json:"outcome"`
	ViewID       string    `json:"view_id,omitempty"`
	At           time.Time `json:"at"`
	DurationMs   int64     `json:"duration_ms"`
	Total        int       `json:"total"`
	Critical     int       `json:"critical"`
	Matched      int       `json:"matched"`
	Flagged      int       `json:"needs_justification"`
	DriftColumns int       `json:"drift_columns"`
	FailedSource string    `json:"failed_source,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Publisher delivers cycle events.
type Publisher interface {
	Publish(ctx context.Context, ev CycleEvent) error
	Close() error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, CycleEvent) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events as JSON to a fanout exchange. The routing
// key is the outcome, so topic rebinding stays possible.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	closed   bool
}

// Dial connects to url, declares a durable fanout exchange and returns a
// publisher that owns the connection.
func Dial(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = defaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeFanout,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p := newPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) *AMQPPublisher {
	if exchange == "" {
		exchange = defaultExchange
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

// Publish sends ev. The call is bounded by a five second timeout.
func (p *AMQPPublisher) Publish(ctx context.Context, ev CycleEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode cycle event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		ev.Outcome,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.TriggerID,
			Timestamp:    ev.At,
			Type:         "refresh.cycle",
			Body:         body,
		})
}

// Close releases the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
