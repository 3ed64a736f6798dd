package ports

import (
	"context"

	"github.com/shopsphere/storefront/internal/core/domain"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// IdentityService validates credentials: registration with uniqueness
// enforcement and login against the stored password hash.
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
}
