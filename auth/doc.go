// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and checks poll admin keys.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same poll ID and salt always produce the same key. This allows validation
without storing the key in the database.

The key is returned once from poll creation and must be sent in the
X-Admin-Key header to update, remove, decide or abandon the poll, and to
control its countdown:

	keys := auth.NewKeys(cfg.AdminKeySalt)
	if err := keys.Authorize(r, pollID); err != nil {
		// 401
	}
*/
package auth
