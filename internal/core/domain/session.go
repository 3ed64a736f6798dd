package domain

import "time"

// SessionTTL is the fixed lifetime of a session assertion. Role changes
// require re-issuance, so the role carried by an assertion is immutable
// for this entire window.
const SessionTTL = 7 * 24 * time.Hour

// SessionClaims is the payload baked into a signed session assertion.
type SessionClaims struct {
	IdentityID string
	Role       string
	JTI        string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}
