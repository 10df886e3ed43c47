// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAdminKey   = errors.New("invalid admin key")
	ErrInvalidAccountKey = errors.New("invalid account key")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey creates an HMAC-based admin key for an election.
// This is deterministic and verifiable, so nothing needs to be stored.
func GenerateAdminKey(electionID, salt string) string {
	return hmacKey("election:"+electionID, salt)
}

// ValidateAdminKey checks if the provided admin key is valid for the election
func ValidateAdminKey(electionID, adminKey, salt string) error {
	expected := GenerateAdminKey(electionID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateAccountKey creates an HMAC-based key for an organizer account.
// Holders may read the credit balance and subscribe to the private channel.
func GenerateAccountKey(organizerID, salt string) string {
	return hmacKey("organizer:"+organizerID, salt)
}

// ValidateAccountKey checks if the provided key is valid for the organizer
func ValidateAccountKey(organizerID, accountKey, salt string) error {
	expected := GenerateAccountKey(organizerID, salt)
	if !hmac.Equal([]byte(accountKey), []byte(expected)) {
		return ErrInvalidAccountKey
	}
	return nil
}

func hmacKey(subject, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(subject))
	sum := h.Sum(nil)
	// URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
