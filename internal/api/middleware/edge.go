package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shopsphere/storefront/internal/api/session"
)

// HeaderSessionToken carries the session assertion to downstream API
// handlers. It is set exclusively by the edge relay; endpoints that trust
// it must still verify the assertion themselves.
const HeaderSessionToken = "X-Session-Token"

// edgeExemptPaths are the authentication endpoints the relay skips:
// obtaining a token must never require a token.
var edgeExemptPaths = map[string]struct{}{
	"/api/auth/login":        {},
	"/api/auth/register":     {},
	"/api/auth/set-cookie":   {},
	"/api/auth/clear-cookie": {},
}

// EdgeRelay runs once per inbound request before any route logic. For API
// paths outside the exempt set it republishes the session cookie as the
// propagated identity header. It performs no verification and never fails
// the request: an absent cookie simply forwards the request unmodified,
// leaving rejection to the endpoint that requires identity.
func EdgeRelay(cookies *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// The header is edge-derived only; drop any client-supplied value.
			req.Header.Del(HeaderSessionToken)

			if relayPath(req.URL.Path) {
				if token := cookies.Read(req); token != "" {
					req.Header.Set(HeaderSessionToken, token)
				}
			}
			return next(c)
		}
	}
}

func relayPath(path string) bool {
	if !strings.HasPrefix(path, "/api/") {
		return false
	}
	_, exempt := edgeExemptPaths[path]
	return !exempt
}
