package eventsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultQueue receives roster lifecycle events
	DefaultQueue = "roster_events"

	// EventRosterPublished is the type of the event sent when a roster is published
	EventRosterPublished = "roster.published"

	defaultPublishTimeout = 5 * time.Second
)

// Channel is the part of an AMQP channel used for publishing
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RosterPublished is sent once a roster period becomes binding
type RosterPublished struct {
	RosterID        string    `json:"roster_id"`
	Station         string    `json:"station"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	PublishedAt     time.Time `json:"published_at"`
	Assignments     int       `json:"assignments"`
	NoticeDays      int       `json:"notice_days"`
	NoticeStatus    string    `json:"notice_status"`
	HasWarnings     bool      `json:"has_warnings"`
	UnresolvedSlots int       `json:"unresolved_slots"`
}

// Client publishes roster events to a durable queue
type Client struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
	timeout time.Duration
}

// Dial connects to the broker and declares the queue
func Dial(url, queue string, timeout time.Duration) (*Client, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	client := NewClient(ch, queue, timeout)
	client.conn = conn
	return client, nil
}

// NewClient publishes on an already open channel
func NewClient(ch Channel, queue string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	if queue == "" {
		queue = DefaultQueue
	}
	return &Client{channel: ch, queue: queue, timeout: timeout}
}

// PublishRosterPublished sends a roster.published event
func (c *Client) PublishRosterPublished(ctx context.Context, event RosterPublished) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.channel.PublishWithContext(
		ctx,
		"",
		c.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Type:         EventRosterPublished,
			Timestamp:    event.PublishedAt,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", EventRosterPublished, err)
	}

	return nil
}

// Close closes the broker connection, if this client opened it
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
