package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopsphere/storefront/internal/api/metrics"
	"github.com/shopsphere/storefront/internal/core/service"
)

// identityKey is the echo context key holding the verified identity.
const identityKey = "verified_identity"

// TokenVerifier verifies a propagated session assertion. Only a successful
// Verify can produce a usable VerifiedIdentity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (service.VerifiedIdentity, error)
}

// Authenticate requires a verified session assertion on the propagated
// header and injects the resulting VerifiedIdentity into the context.
// Absence of the header means no session was presented.
func Authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(HeaderSessionToken)
			if token == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "no session presented")
			}

			identity, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the VerifiedIdentity injected by Authenticate.
func IdentityFrom(c echo.Context) (service.VerifiedIdentity, bool) {
	identity, ok := c.Get(identityKey).(service.VerifiedIdentity)
	return identity, ok && identity.Valid()
}
