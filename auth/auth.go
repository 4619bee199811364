// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// AdminKeyHeader carries the poll admin key on admin-only requests.
const AdminKeyHeader = "X-Admin-Key"

var (
	ErrMissingAdminKey = errors.New("missing admin key")
	ErrInvalidAdminKey = errors.New("invalid admin key")
)

// GenerateAdminKey creates an HMAC-based admin key for a poll
// This is deterministic and verifiable
func GenerateAdminKey(pollID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(pollID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the poll
func ValidateAdminKey(pollID, adminKey, salt string) error {
	if adminKey == "" {
		return ErrMissingAdminKey
	}
	expected := GenerateAdminKey(pollID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// Keys issues and checks admin keys with one salt.
type Keys struct {
	salt string
}

func NewKeys(salt string) Keys {
	return Keys{salt: salt}
}

func (k Keys) Issue(pollID string) string {
	return GenerateAdminKey(pollID, k.salt)
}

// Authorize validates the admin key header of r for pollID.
func (k Keys) Authorize(r *http.Request, pollID string) error {
	key := strings.TrimSpace(r.Header.Get(AdminKeyHeader))
	return ValidateAdminKey(pollID, key, k.salt)
}
