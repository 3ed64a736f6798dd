package ports

import (
	"context"
	"time"
)

// RevocationStore is the denylist consulted during assertion verification.
// Revoke marks an assertion's jti as dead until its natural expiry; after
// that the signature's exp claim rejects it anyway, so entries carry a TTL.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
