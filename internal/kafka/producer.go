package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

// NewProducer creates a writer for one topic. Messages with the same key
// land on the same partition.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{Writer: writer}
}

// WriteMessages publishes messages to the producer's topic
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return p.Writer.WriteMessages(ctx, msgs...)
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	return p.Writer.Close()
}
