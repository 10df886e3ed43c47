// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the electorate API server.

Electorate is an online election service: organizers create elections
with candidates grouped by position, optionally restrict voting to an
uploaded roster, and watch results update live while voters cast one
ballot per position inside the election's time window.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 3419 -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin/account key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3419)
  - DATABASE_TYPE (-t): "postgres" (default) or "sqlite"
  - KAFKA_BROKERS (--kafka-brokers): comma-separated brokers; enables
    the Kafka event pipeline when set
  - KAFKA_TOPIC (--kafka-topic): event topic (default: vote-events)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (organizers, elections, eligibility, voting, live)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Key generation and validation
  - db: Schema creation and tally reconciliation
  - cliparse: Configuration parsing
  - pubsub: Websocket fan-out hub
  - event: Event publishing (local or Kafka-backed)
  - metrics: Prometheus instrumentation

See package documentation for each component.
*/
package main
