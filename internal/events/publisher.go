package events

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(context.Context, string, string) (int, error)
}

// Publisher writes HoldCompleted events to a single topic. When a registry is configured the
// value carries Confluent wire framing; otherwise it is plain JSON.
type Publisher struct {
	writer   messageWriter
	registry schemaRegistrar
	topic    string
	subject  string
	now      func() time.Time

	mu       sync.Mutex
	schemaID int
}

// Option configures optional Publisher behaviour.
type Option func(*Publisher)

// WithSchemaRegistry enables wire framing with IDs resolved from registry.
func WithSchemaRegistry(registry schemaRegistrar) Option {
	return func(p *Publisher) {
		p.registry = registry
	}
}

// NewPublisher constructs a Publisher for topic.
func NewPublisher(writer messageWriter, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		writer:  writer,
		topic:   topic,
		subject: topic + "-value",
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishHoldCompleted writes one event. Missing identifiers and timestamps are filled in.
// Failures are returned to the caller and never retried here.
func (p *Publisher) PublishHoldCompleted(ctx context.Context, event HoldCompleted) error {
	if event.UserID == "" {
		return errors.New("hold event: user_id is required")
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.CompletedAt.IsZero() {
		event.CompletedAt = p.now()
	}
	if event.Version == "" {
		event.Version = "v1"
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(HoldCompletedType)},
		{Key: "event_id", Value: []byte(event.EventID)},
	}
	value := payload
	if p.registry != nil {
		schemaID, err := p.resolveSchemaID(ctx)
		if err != nil {
			return err
		}
		value = encodeWireFormat(schemaID, payload)
		headers = append(headers, kafka.Header{Key: "schema_subject", Value: []byte(p.subject)})
	}

	return p.writer.WriteMessages(ctx, p.topic, kafka.Message{
		Key:     []byte(event.UserID),
		Value:   value,
		Headers: headers,
		Time:    event.CompletedAt,
	})
}

func (p *Publisher) resolveSchemaID(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schemaID != 0 {
		return p.schemaID, nil
	}
	id, err := p.registry.EnsureSchema(ctx, p.subject, holdCompletedSchema)
	if err != nil {
		return 0, err
	}
	p.schemaID = id
	return id, nil
}

// encodeWireFormat applies Confluent framing: magic byte 0, big-endian schema ID, payload.
func encodeWireFormat(schemaID int, payload []byte) []byte {
	frame := make([]byte, 5+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}
