// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/danielhkuo/electorate/pubsub"
)

// Envelope is the wire form of a fan-out event: the hub topic it belongs
// to plus the already-encoded payload.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher delivers fan-out events to subscribers. Implementations must
// be safe for concurrent use. Publishing is fire-and-forget from the
// caller's point of view: the vote is already committed, so errors are
// returned for logging only and must never be treated as vote failures.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

// LocalPublisher feeds the in-process hub directly. Used when no broker
// is configured (single-process deployments and tests).
type LocalPublisher struct {
	hub *pubsub.Hub
}

func NewLocalPublisher(hub *pubsub.Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (lp *LocalPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	lp.hub.Broadcast(topic, data)
	return nil
}

func (lp *LocalPublisher) Close() error { return nil }

// Notify publishes and logs any failure at Warn, keeping the
// fire-and-forget contract in one place.
func Notify(ctx context.Context, p Publisher, topic string, payload interface{}) {
	if err := p.Publish(ctx, topic, payload); err != nil {
		slog.Warn("event publish failed", "topic", topic, "error", err)
	}
}
