package shipevent

import (
	"context"
	"fmt"
	"log/slog"
)

// Producer is the queue surface the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key, payload []byte) error
}

// Publisher emits shipment lifecycle events to a topic. Publishing is best
// effort: redeem flows must not fail because the event bus is down, so
// Emit logs and swallows transport errors.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewPublisher(producer Producer, topic string, logger *slog.Logger) (*Publisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("shipevent: producer is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("shipevent: topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}, nil
}

// Emit publishes the payload keyed by its event id. Invalid payloads are a
// programming error and are returned; transport failures are logged only.
func (p *Publisher) Emit(ctx context.Context, payload Payload) error {
	body, err := payload.Encode()
	if err != nil {
		return err
	}
	key := []byte(EventID(payload.Version, payload.SessionReference))
	if err := p.producer.Publish(ctx, p.topic, key, body); err != nil {
		p.logger.Warn("shipment event publish failed",
			"version", payload.Version,
			"session_reference", payload.SessionReference,
			"error", err)
	}
	return nil
}
