package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProducer writes ticket events to a Kafka topic, best-effort.
// With no brokers configured every call is a no-op, and a failed write
// is logged and dropped rather than surfaced to the request path.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaProducer creates the producer. Empty brokers or topic yield a
// disabled producer.
func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return &KafkaProducer{logger: logger}
	}
	return &KafkaProducer{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Produce serializes the event as JSON keyed by ticket id.
func (p *KafkaProducer) Produce(ctx context.Context, event Event) {
	if p == nil || p.writer == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal ticket event", zap.Error(err))
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.TicketID),
		Value: value,
	}); err != nil {
		p.logger.Warn("produce ticket event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// Close flushes and releases the writer.
func (p *KafkaProducer) Close() {
	if p != nil && p.writer != nil {
		_ = p.writer.Close()
	}
}
