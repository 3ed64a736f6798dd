package ports

import (
	"context"

	"github.com/shopsphere/storefront/internal/core/domain"
)

// IdentityRepository defines the interface for credential persistence.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}
