// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/danielhkuo/electorate/pubsub"
)

// KafkaPublisher writes fan-out envelopes to a shared topic so that every
// server process behind the load balancer can relay them to its own hub.
// Messages are keyed by hub topic, keeping per-channel ordering.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		// Fan-out is best-effort; a single ack keeps publish latency out
		// of the vote path's tail.
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		Compression:  kafka.Snappy,
	}
	return &KafkaPublisher{writer: w}
}

func (kp *KafkaPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	env, err := json.Marshal(Envelope{Topic: topic, Payload: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(topic),
		Value: env,
	}
	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

func (kp *KafkaPublisher) Close() error {
	if err := kp.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// Relay consumes the shared event topic and feeds the local hub. Each
// process uses its own consumer group so all of them see every event.
type Relay struct {
	reader *kafka.Reader
	hub    *pubsub.Hub
}

func NewRelay(brokers []string, topic, groupID string, hub *pubsub.Hub) *Relay {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10mb
		MaxWait:  500 * time.Millisecond,
		// New groups start at the tail; there is no value in replaying
		// tally history to a freshly started process.
		StartOffset: kafka.LastOffset,
	})
	return &Relay{reader: r, hub: hub}
}

// Run blocks until ctx is cancelled, pumping envelopes into the hub.
func (rl *Relay) Run(ctx context.Context) error {
	for {
		msg, err := rl.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			slog.Warn("failed to read event from kafka", "error", err)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			slog.Warn("discarding malformed event envelope", "error", err)
			continue
		}
		rl.hub.Broadcast(env.Topic, env.Payload)
	}
}

func (rl *Relay) Close() error {
	if err := rl.reader.Close(); err != nil {
		return fmt.Errorf("failed to close kafka reader: %w", err)
	}
	return nil
}
