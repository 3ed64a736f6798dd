// Package session holds custody of the session assertion cookie. The
// assertion is only ever stored httpOnly, so page scripts can neither read
// nor forge it; all issue/revoke paths go through the Manager.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopsphere/storefront/internal/core/domain"
)

// CookieName is the session assertion cookie.
const CookieName = "sf_session"

// Manager issues, revokes, and reads the session cookie.
type Manager struct {
	secure bool
	ttl    time.Duration
}

// NewManager creates a Manager. secure controls the cookie's Secure
// attribute and must be true on TLS deployments.
func NewManager(secure bool) *Manager {
	return &Manager{secure: secure, ttl: domain.SessionTTL}
}

// Issue sets the assertion into the cookie: httpOnly, SameSite=Lax,
// scoped to the whole application.
func (m *Manager) Issue(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		Expires:  time.Now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoke overwrites the cookie with an already-expired one, deleting it
// client-side immediately. Calling Revoke on an absent cookie produces the
// same cleared state, so logout is idempotent.
func (m *Manager) Revoke(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read extracts the raw token from the request's cookies, or "" when
// absent. No verification happens here.
func (m *Manager) Read(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
