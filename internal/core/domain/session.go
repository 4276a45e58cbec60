package domain

import "time"

// SessionToken is a signed credential binding a username to an expiry.
// Value is the opaque string handed to clients; the remaining fields are the
// decoded claims.
type SessionToken struct {
	Value     string    `json:"token"`
	Subject   string    `json:"-"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is no longer valid at t.
func (t *SessionToken) Expired(at time.Time) bool {
	return !at.Before(t.ExpiresAt)
}
