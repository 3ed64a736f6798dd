package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopsphere/storefront/internal/core/domain"
	"github.com/shopsphere/storefront/internal/core/ports"
)

type stubIdentityRepo struct {
	identities map[string]*domain.Identity // keyed by email
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{identities: make(map[string]*domain.Identity)}
}

func cloneIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	clone := *id
	return &clone
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	for _, existing := range r.identities {
		if existing.Email == identity.Email || existing.Username == identity.Username {
			return nil, domain.ErrIdentityExists
		}
	}
	copy := cloneIdentity(identity)
	copy.ID = identity.Username
	r.identities[copy.Email] = cloneIdentity(copy)
	return cloneIdentity(copy), nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	identity, ok := r.identities[email]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return cloneIdentity(identity), nil
}

func (r *stubIdentityRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, identity := range r.identities {
		counts[identity.Role]++
	}
	return counts, nil
}

func registerInput(username, email, role string) ports.RegisterInput {
	return ports.RegisterInput{Username: username, Email: email, Password: "pass123", Role: role}
}

func TestIdentityService_Register_Success(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, zerolog.Nop())

	identity, err := svc.Register(context.Background(), registerInput("alice", "alice@example.com", domain.RoleConsumer))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if identity == nil {
		t.Fatalf("expected identity, got nil")
	}
	if identity.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if identity.Role != domain.RoleConsumer {
		t.Fatalf("unexpected role: %s", identity.Role)
	}
}

func TestIdentityService_Register_Validation(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, zerolog.Nop())

	cases := []ports.RegisterInput{
		{Username: "", Email: "a@example.com", Password: "pw", Role: domain.RoleConsumer},
		{Username: "a", Email: "a@example.com", Password: "", Role: domain.RoleConsumer},
		{Username: "a", Email: "not-an-email", Password: "pw", Role: domain.RoleConsumer},
		{Username: "a", Email: "", Password: "pw", Role: domain.RoleConsumer},
		{Username: "a", Email: "a@example.com", Password: "pw", Role: "superuser"},
	}
	for _, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("input %+v: expected ErrValidation, got %v", in, err)
		}
	}
}

func TestIdentityService_Register_Duplicate(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, zerolog.Nop())

	if _, err := svc.Register(context.Background(), registerInput("bob", "bob@x.com", domain.RoleVendor)); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), registerInput("bob2", "bob@x.com", domain.RoleVendor)); !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists for duplicate email, got %v", err)
	}
	if _, err := svc.Register(context.Background(), registerInput("bob", "other@x.com", domain.RoleVendor)); !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists for duplicate username, got %v", err)
	}
}

func TestIdentityService_Login_Success(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, zerolog.Nop())

	if _, err := svc.Register(context.Background(), registerInput("carol", "carol@example.com", domain.RoleAdmin)); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	identity, err := svc.Login(context.Background(), "carol@example.com", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if identity.Username != "carol" || identity.Role != domain.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestIdentityService_Login_NoExistenceLeak(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, zerolog.Nop())

	if _, err := svc.Register(context.Background(), registerInput("dave", "dave@example.com", domain.RoleConsumer)); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Known email, wrong password.
	_, errWrongPassword := svc.Login(context.Background(), "dave@example.com", "badpass")
	// Unknown email entirely.
	_, errUnknownEmail := svc.Login(context.Background(), "ghost@example.com", "badpass")

	if !errors.Is(errWrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Fatalf("error messages differ, leaking existence: %q vs %q", errWrongPassword, errUnknownEmail)
	}
}

func TestIdentityService_Login_Validation(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, zerolog.Nop())

	if _, err := svc.Login(context.Background(), "not-an-email", "pw"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed email, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@example.com", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty password, got %v", err)
	}
}
