package domain

import (
	"errors"
	"time"
)

// Roles routable to their own application surface. The set is closed;
// registration rejects anything outside it.
const (
	RoleConsumer = "consumer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityExists     = errors.New("identity already exists")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrStorageUnavailable = errors.New("credential store unavailable")
)

// Identity models a stored credential record. Username and email are each
// unique across all identities; the storage layer enforces this with
// unique indexes so concurrent registrations cannot both pass a pre-check.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidRole reports whether r is one of the enumerated roles.
func ValidRole(r string) bool {
	switch r {
	case RoleConsumer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// RoleAllowed is the single authorization predicate shared by the API
// role middleware and the surface guards. An empty allow-list means any
// non-empty role passes (presence-only check).
func RoleAllowed(role string, allowed ...string) bool {
	if role == "" {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
