// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name   string
		pollID string
		salt   string
	}{
		{"standard", "poll123", "secret-salt"},
		{"empty poll id", "", "salt"},
		{"empty salt", "poll456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.pollID, tt.salt)

			// Should not be empty
			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			key2 := GenerateAdminKey(tt.pollID, tt.salt)
			if key != key2 {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			// Different inputs should produce different keys
			if tt.pollID != "" && tt.salt != "" {
				differentKey := GenerateAdminKey(tt.pollID+"x", tt.salt)
				if key == differentKey {
					t.Error("GenerateAdminKey() produced same key for different poll IDs")
				}
			}

			// URL-safe, no padding
			if strings.ContainsAny(key, "+/=") {
				t.Errorf("GenerateAdminKey() is not URL-safe: %s", key)
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	pollID := "poll123"
	salt := "secret-salt"
	validKey := GenerateAdminKey(pollID, salt)

	tests := []struct {
		name     string
		pollID   string
		adminKey string
		salt     string
		wantErr  error
	}{
		{"valid key", pollID, validKey, salt, nil},
		{"invalid key", pollID, "invalid-key", salt, ErrInvalidAdminKey},
		{"wrong poll id", "wrong-poll", validKey, salt, ErrInvalidAdminKey},
		{"wrong salt", pollID, validKey, "wrong-salt", ErrInvalidAdminKey},
		{"empty key", pollID, "", salt, ErrMissingAdminKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.pollID, tt.adminKey, tt.salt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKeysAuthorize(t *testing.T) {
	keys := NewKeys("secret-salt")
	pollID := "poll123"

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"issued key", keys.Issue(pollID), nil},
		{"issued key with spaces", "  " + keys.Issue(pollID) + " ", nil},
		{"other poll key", keys.Issue("poll456"), ErrInvalidAdminKey},
		{"no header", "", ErrMissingAdminKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/polls/"+pollID+"/decide", nil)
			if tt.header != "" {
				req.Header.Set(AdminKeyHeader, tt.header)
			}
			if err := keys.Authorize(req, pollID); !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
