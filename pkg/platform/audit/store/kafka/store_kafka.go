// Package kafka ships audit events to the compliance topic. Kafka is the
// long-term system of record for the audit trail; the relational store exists
// for operator queries.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "custodia/pkg/platform/audit"
)

// Store publishes audit events as JSON records keyed by the hashed subject,
// so one subject's history lands in one partition in order.
type Store struct {
	client *kgo.Client
	topic  string
}

// New builds a producer over the given brokers.
func New(brokers []string, topic string) (*Store, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("build kafka client: %w", err)
	}
	return &Store{client: client, topic: topic}, nil
}

// NewWithClient wraps an existing client, for tests.
func NewWithClient(client *kgo.Client, topic string) *Store {
	return &Store{client: client, topic: topic}
}

// Append produces one event synchronously.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.SubjectIDHash),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *Store) Close() {
	s.client.Close()
}
