package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. The token
// value is an opaque random string handed to the client as a bearer
// secret. Rows are never deleted; revocation flips the monotonic
// revoked flag and the row stays behind for audit.
type RefreshToken struct {
	ID        int64     // refresh_tokens.id
	UserID    int64     // refresh_tokens.user_id
	Token     string    // refresh_tokens.token (unique)
	ExpiresAt time.Time // refresh_tokens.expires_at
	Revoked   bool      // refresh_tokens.revoked
	CreatedAt time.Time // refresh_tokens.created_at
}

// Active reports whether the token can still be exchanged for access
// tokens at the given instant.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
