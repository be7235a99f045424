package model

import "time"

// PasswordResetToken is an outstanding reset grant for an email. Only the
// SHA-256 digest of the issued token is persisted.
type PasswordResetToken struct {
	ID        string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
