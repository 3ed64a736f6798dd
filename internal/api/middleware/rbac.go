package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopsphere/storefront/internal/core/domain"
)

// RequireRole gates a route on the verified identity's role using the
// shared authorization predicate. With no arguments it accepts any
// authenticated identity. The route must also carry Authenticate, which
// runs first and establishes the identity.
func RequireRole(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no session presented")
			}
			if !domain.RoleAllowed(identity.Role(), allowed...) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
