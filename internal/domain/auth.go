package domain

import "time"

// RefreshToken is a persisted opaque token that lets a client obtain new
// access tokens without re-entering credentials.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Usable reports whether the token may still be exchanged at the given
// instant. A token presented exactly at its expiry is already expired.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t != nil && !t.Revoked && now.Before(t.ExpiresAt)
}
