package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/shopsphere/storefront/internal/api/session"
)

func relayRequest(t *testing.T, path, cookieValue, spoofedHeader string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookieValue})
	}
	if spoofedHeader != "" {
		req.Header.Set(HeaderSessionToken, spoofedHeader)
	}
	return req
}

func runRelay(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var forwarded *http.Request
	mw := EdgeRelay(session.NewManager(false))
	handler := mw(func(c echo.Context) error {
		forwarded = c.Request()
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("relay returned error: %v", err)
	}
	if forwarded == nil {
		t.Fatalf("next handler not called")
	}
	return forwarded
}

func TestEdgeRelay_PropagatesCookieToAPIPath(t *testing.T) {
	req := runRelay(t, relayRequest(t, "/api/vendor/summary", "tok-123", ""))
	if got := req.Header.Get(HeaderSessionToken); got != "tok-123" {
		t.Fatalf("expected propagated token, got %q", got)
	}
}

func TestEdgeRelay_NoCookieForwardsUnmodified(t *testing.T) {
	req := runRelay(t, relayRequest(t, "/api/vendor/summary", "", ""))
	if got := req.Header.Get(HeaderSessionToken); got != "" {
		t.Fatalf("expected no token header, got %q", got)
	}
}

func TestEdgeRelay_AuthEndpointsExempt(t *testing.T) {
	for _, path := range []string{
		"/api/auth/login",
		"/api/auth/register",
		"/api/auth/set-cookie",
		"/api/auth/clear-cookie",
	} {
		req := runRelay(t, relayRequest(t, path, "tok-123", ""))
		if got := req.Header.Get(HeaderSessionToken); got != "" {
			t.Fatalf("%s: auth endpoint must not receive propagation, got %q", path, got)
		}
	}
}

func TestEdgeRelay_MeEndpointIsNotExempt(t *testing.T) {
	req := runRelay(t, relayRequest(t, "/api/auth/me", "tok-123", ""))
	if got := req.Header.Get(HeaderSessionToken); got != "tok-123" {
		t.Fatalf("/api/auth/me must receive propagation, got %q", got)
	}
}

func TestEdgeRelay_StripsClientSuppliedHeader(t *testing.T) {
	// A client must not be able to inject the propagated header directly.
	req := runRelay(t, relayRequest(t, "/api/vendor/summary", "", "forged-token"))
	if got := req.Header.Get(HeaderSessionToken); got != "" {
		t.Fatalf("forged header must be stripped, got %q", got)
	}

	req = runRelay(t, relayRequest(t, "/api/vendor/summary", "real-token", "forged-token"))
	if got := req.Header.Get(HeaderSessionToken); got != "real-token" {
		t.Fatalf("expected cookie-derived token to win, got %q", got)
	}
}

func TestEdgeRelay_NonAPIPathsUntouched(t *testing.T) {
	for _, path := range []string{"/account", "/static/img/logo.png", "/health", "/metrics"} {
		req := runRelay(t, relayRequest(t, path, "tok-123", ""))
		if got := req.Header.Get(HeaderSessionToken); got != "" {
			t.Fatalf("%s: non-API path must not receive propagation, got %q", path, got)
		}
	}
}
