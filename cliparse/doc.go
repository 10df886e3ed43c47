// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3419)
  - DatabaseURL: Connection string (required)
  - DatabaseType: "postgres" (default) or "sqlite"
  - AdminKeySalt: Secret for admin/account key HMAC and IP hashing (required)
  - KafkaBrokers / KafkaTopic: optional cross-process event bus

# CLI Flags

	-p              Server port
	-d              Database URL
	-t              Database type
	-admin-salt     Admin key salt
	-kafka-brokers  Comma-separated broker list
	-kafka-topic    Vote event topic

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	ADMIN_KEY_SALT → -admin-salt
	KAFKA_BROKERS  → -kafka-brokers
	KAFKA_TOPIC    → -kafka-topic

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided
  - DATABASE_TYPE, when set, must be postgres or sqlite

When brokers are configured without a topic, the topic defaults to
"vote-events". When no brokers are configured the server falls back to
in-process fan-out only.
*/
package cliparse
