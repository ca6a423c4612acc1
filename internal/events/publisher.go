package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/internal/domain"
)

const OrderCreatedQueue = "storefront.order.created.v1"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends order events to RabbitMQ through the default exchange.
type Publisher struct {
	mu     sync.Mutex
	ch     channel
	conn   io.Closer
	logger *log.Logger
}

// Dial connects to url, declares the order queue, and returns a Publisher
// that owns the connection.
func Dial(url string, logger *log.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", OrderCreatedQueue, err)
	}
	p := NewPublisher(ch, logger)
	p.conn = conn
	return p, nil
}

// NewPublisher wraps an open channel.
func NewPublisher(ch channel, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Publisher{ch: ch, logger: logger}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o domain.Order) error {
	env := BuildOrderCreatedEnvelope(o, CorrelationID(ctx))
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", OrderCreatedEventName, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(pubCtx, "", OrderCreatedQueue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.EventID,
		CorrelationId: env.CorrelationID,
		Timestamp:     env.OccurredAt,
		Type:          env.EventName,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", OrderCreatedEventName, err)
	}
	p.logger.Printf("events: published %s order_id=%s correlation_id=%s", env.EventName, o.ID, env.CorrelationID)
	return nil
}

func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
