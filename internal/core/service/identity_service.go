package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopsphere/storefront/internal/core/domain"
	"github.com/shopsphere/storefront/internal/core/ports"
)

type identityService struct {
	repo ports.IdentityRepository
	log  zerolog.Logger
}

// NewIdentityService returns an IdentityService implementation backed by the
// given repository.
func NewIdentityService(repo ports.IdentityRepository, log zerolog.Logger) ports.IdentityService {
	return &identityService{repo: repo, log: log}
}

// Register validates the payload, hashes the password, and persists a new
// identity. Duplicate username or email surfaces as ErrIdentityExists from
// the storage layer's unique indexes.
func (s *identityService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if !validEmail(in.Email) {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrValidation)
	}
	if !domain.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.Identity{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("identity_id", created.ID).Str("role", created.Role).Msg("identity registered")
	return created, nil
}

// Login verifies the password against the stored hash. An unknown email and
// a wrong password both yield ErrInvalidCredentials so callers cannot probe
// which addresses are registered.
func (s *identityService) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrValidation)
	}

	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return identity, nil
}

// validEmail is a structural check only, not a deliverability check.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
