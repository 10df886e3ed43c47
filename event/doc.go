// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package event moves fan-out events from the vote path to subscribers.

Two Publisher implementations exist:

  - LocalPublisher: feeds the in-process hub directly; used when no
    broker is configured and in tests
  - KafkaPublisher: writes envelopes to a shared Kafka topic so every
    server process can relay them to its own hub

With Kafka enabled each process also runs a Relay with a unique consumer
group, so all processes see all events and local websocket subscribers
receive votes committed on other instances.

Publishing is fire-and-forget relative to the vote: by the time an event
is published the ballot is durably committed, so failures are logged (see
Notify) and never propagate to the voter.
*/
package event
