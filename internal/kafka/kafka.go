// Package kafka publishes outbox events with segmentio/kafka-go.
package kafka

import (
	"context"
	"errors"

	"order-service/internal/outbox"

	"github.com/segmentio/kafka-go"
)

var ErrDisabled = errors.New("kafka disabled")

type Client struct {
	Brokers []string
}

func NewClient(brokers []string) *Client {
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends outbox records to one topic, keyed by aggregate so every
// event for an order lands on the same partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher returns a Publisher writing to topic, or ErrDisabled when no brokers are configured.
func NewPublisher(c *Client, topic string) (*Publisher, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	return &Publisher{writer: c.NewWriter(topic)}, nil
}

func (p *Publisher) Publish(ctx context.Context, rec outbox.Record) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Key),
		Value: rec.Payload,
		Time:  rec.CreatedAt.UTC(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(rec.EventID.String())},
			{Key: "event_type", Value: []byte(rec.EventType)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
