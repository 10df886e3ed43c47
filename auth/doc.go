// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides ID generation, key derivation, and IP hashing.

# IDs

GenerateID returns a random hex string:

	electionID, err := auth.GenerateID(16) // 32 hex chars

# Keys

Admin and account keys are deterministic HMACs, so nothing is stored
server-side; possession of the key is the credential.

	adminKey := auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
	err := auth.ValidateAdminKey(electionID, presented, cfg.AdminKeySalt)

Election admin keys gate organizer operations on one election; account
keys gate the credit balance and the organizer's private channel. The two
use distinct HMAC subjects and are not interchangeable.

# IP Hashing

HashIP produces a salted one-way hash stored as ballot audit metadata so
raw client IPs never reach the database.
*/
package auth
