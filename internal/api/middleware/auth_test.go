package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shopsphere/storefront/internal/core/domain"
	"github.com/shopsphere/storefront/internal/core/service"
)

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemRevocations() *memRevocations {
	return &memRevocations{revoked: make(map[string]bool)}
}

func (m *memRevocations) Revoke(_ context.Context, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = true
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[jti], nil
}

func newTestTokenService() *service.TokenService {
	return service.NewTokenService("secret", time.Hour, newMemRevocations(), zerolog.Nop())
}

func TestAuthenticate_ValidToken(t *testing.T) {
	e := echo.New()
	tokens := newTestTokenService()

	token, err := tokens.Issue("id-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderSessionToken, token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Authenticate(tokens)(func(c echo.Context) error {
		called = true
		identity, ok := IdentityFrom(c)
		if !ok {
			t.Fatalf("identity not injected")
		}
		if identity.ID() != "id-1" || identity.Role() != domain.RoleAdmin {
			t.Fatalf("unexpected identity: id=%s role=%s", identity.ID(), identity.Role())
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Authenticate(newTestTokenService())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderSessionToken, "not-a-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Authenticate(newTestTokenService())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	e := echo.New()
	tokens := newTestTokenService()

	token, err := tokens.Issue("id-1", domain.RoleVendor)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := tokens.Revoke(context.Background(), token); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderSessionToken, token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Authenticate(tokens)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", rec.Code)
	}
}

func TestIdentityFrom_AbsentOrForged(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if _, ok := IdentityFrom(c); ok {
		t.Fatalf("expected no identity on bare context")
	}

	// A zero VerifiedIdentity smuggled into the context must not pass.
	c.Set(identityKey, service.VerifiedIdentity{})
	if _, ok := IdentityFrom(c); ok {
		t.Fatalf("zero identity must not be usable")
	}
}
