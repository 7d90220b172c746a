package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"

	"storefront/internal/models"
)

// QueueName is the durable queue storefront events are published to.
const QueueName = "storefront_events"

// Event types.
const (
	EventCheckoutSnapshot = "checkout.snapshot"
	EventOrderPlaced      = "order.placed"
	EventOrderStatus      = "order.status"
)

// Event is the JSON envelope of every published message.
type Event struct {
	Type       string          `json:"type"`
	Owner      string          `json:"owner,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	log     *logrus.Entry
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the event
// queue.
func NewClient(cfg Config, log *logrus.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := NewClientWithChannel(ch, log)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithChannel wraps an open channel and declares the event queue.
func NewClientWithChannel(ch Channel, log *logrus.Logger) (*Client, error) {
	if _, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare %s: %w", QueueName, err)
	}

	entry := log.WithField("component", "rabbitmq")
	entry.WithField("queue", QueueName).Info("RabbitMQ client connected")
	return &Client{channel: ch, log: entry}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends one event with payload marshaled to JSON.
func (c *Client) Publish(ctx context.Context, eventType, owner string, payload interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	now := time.Now().UTC()
	body, err := json.Marshal(Event{Type: eventType, Owner: owner, Payload: raw, OccurredAt: now})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.Publish(
		"",        // default exchange
		QueueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         eventType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    now,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.log.WithFields(logrus.Fields{"type": eventType, "owner": owner}).Debug("event published")
	return nil
}

// PublishCheckout announces a checkout snapshot.
func (c *Client) PublishCheckout(ctx context.Context, owner string, summary models.CheckoutSummary) error {
	return c.Publish(ctx, EventCheckoutSnapshot, owner, summary)
}

// PublishOrderPlaced announces a newly placed order.
func (c *Client) PublishOrderPlaced(ctx context.Context, order models.Order) error {
	return c.Publish(ctx, EventOrderPlaced, order.UserID.String(), order)
}

// PublishOrderStatus announces an admin status change.
func (c *Client) PublishOrderStatus(ctx context.Context, order models.Order) error {
	return c.Publish(ctx, EventOrderStatus, order.UserID.String(), map[string]string{
		"orderId": order.ID.String(),
		"status":  order.EffectiveStatus(),
	})
}

// ConsumeEvents delivers every queued event to handler in a goroutine until
// the channel closes. Handler errors requeue the message.
func (c *Client) ConsumeEvents(handler func(Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handle(msg, handler)
		}
	}()
	return nil
}

// Acknowledger is the subset of amqp.Delivery used to settle a message.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) handle(msg amqp.Delivery, handler func(Event) error) {
	c.settle(&msg, msg.Body, handler)
}

// settle decodes body and acks or nacks it. Undecodable bodies are dropped
// without requeueing.
func (c *Client) settle(ack Acknowledger, body []byte, handler func(Event) error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		c.log.WithError(err).Warn("dropping undecodable event")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			c.log.WithError(nackErr).Warn("failed to nack message")
		}
		return
	}
	if err := handler(ev); err != nil {
		c.log.WithError(err).WithField("type", ev.Type).Warn("event handler failed")
		if nackErr := ack.Nack(false, true); nackErr != nil {
			c.log.WithError(nackErr).Warn("failed to nack message")
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		c.log.WithError(err).Warn("failed to ack message")
	}
}

// LogEvents returns a handler that records each event in log.
func LogEvents(log *logrus.Logger) func(Event) error {
	entry := log.WithField("component", "events")
	return func(ev Event) error {
		entry.WithFields(logrus.Fields{
			"type":  ev.Type,
			"owner": ev.Owner,
			"at":    ev.OccurredAt.Format(time.RFC3339),
		}).Info("storefront event")
		return nil
	}
}
