package shipevent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type stubProducer struct {
	topic   string
	key     []byte
	payload []byte
	err     error
	calls   int
}

func (s *stubProducer) Publish(_ context.Context, topic string, key, payload []byte) error {
	s.calls++
	s.topic = topic
	s.key = key
	s.payload = payload
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(noopWriter{}, nil))
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestNewPublisherValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewPublisher(nil, "merch.shipments", nil); err == nil {
		t.Fatalf("expected error for nil producer")
	}
	if _, err := NewPublisher(&stubProducer{}, "", nil); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	if _, err := NewPublisher(&stubProducer{}, "merch.shipments", nil); err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
}

func TestPublisherEmitKeysByEventID(t *testing.T) {
	t.Parallel()

	producer := &stubProducer{}
	pub, err := NewPublisher(producer, "merch.shipments", discardLogger())
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	payload := Payload{
		Version:          KindRecorded,
		SessionReference: "9yhrkxMKfvzzaUDYcwxNCwsgVbjyC2u9dYCA3166GsCt",
		TShirt:           "LA BIKER TEE",
		At:               time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := pub.Emit(context.Background(), payload); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if producer.topic != "merch.shipments" {
		t.Fatalf("topic = %q", producer.topic)
	}
	wantKey := EventID(KindRecorded, payload.SessionReference)
	if string(producer.key) != wantKey {
		t.Fatalf("key = %q, want %q", producer.key, wantKey)
	}
	if !strings.Contains(string(producer.payload), payload.SessionReference) {
		t.Fatalf("payload missing session reference: %s", producer.payload)
	}
}

func TestPublisherEmitRejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	producer := &stubProducer{}
	pub, err := NewPublisher(producer, "merch.shipments", discardLogger())
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	if err := pub.Emit(context.Background(), Payload{Version: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown version")
	}
	if producer.calls != 0 {
		t.Fatalf("producer should not be called for invalid payload")
	}
}

func TestPublisherEmitSwallowsTransportErrors(t *testing.T) {
	t.Parallel()

	producer := &stubProducer{err: errors.New("broker down")}
	pub, err := NewPublisher(producer, "merch.shipments", discardLogger())
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	payload := Payload{
		Version:          KindCompleted,
		SessionReference: "ref-1",
		At:               time.Now().UTC(),
	}
	if err := pub.Emit(context.Background(), payload); err != nil {
		t.Fatalf("Emit should not surface transport errors, got %v", err)
	}
	if producer.calls != 1 {
		t.Fatalf("producer calls = %d, want 1", producer.calls)
	}
}
