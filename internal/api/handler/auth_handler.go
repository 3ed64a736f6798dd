package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shopsphere/storefront/internal/api/metrics"
	apimw "github.com/shopsphere/storefront/internal/api/middleware"
	"github.com/shopsphere/storefront/internal/api/session"
	"github.com/shopsphere/storefront/internal/core/domain"
	"github.com/shopsphere/storefront/internal/core/ports"
)

// TokenIssuer mints a signed session assertion for a freshly authenticated
// identity.
type TokenIssuer interface {
	Issue(identityID, role string) (string, error)
}

// TokenRevoker denylists a presented assertion on logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// AuthHandler serves the authentication endpoints: registration, login,
// and the two cookie-custody endpoints.
type AuthHandler struct {
	identities ports.IdentityService
	issuer     TokenIssuer
	revoker    TokenRevoker
	cookies    *session.Manager
	log        zerolog.Logger
}

func NewAuthHandler(identities ports.IdentityService, issuer TokenIssuer, revoker TokenRevoker, cookies *session.Manager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		issuer:     issuer,
		revoker:    revoker,
		cookies:    cookies,
		log:        log,
	}
}

// Register creates a new identity.
//
// @Summary      Register a new identity
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  identityResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("validation_error").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("validation_error").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.identities.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerOutcome(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, toIdentityResponse(identity))
}

// Login authenticates an identity and issues a session assertion. The
// assertion is both returned in the body (for clients that complete cookie
// custody via /api/auth/set-cookie) and set directly as the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("validation_error").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("validation_error").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.identities.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginOutcome(err)).Inc()
		return err
	}

	token, err := h.issuer.Issue(identity.ID, identity.Role)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	h.cookies.Issue(c, token)
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		ID:    identity.ID,
		Role:  identity.Role,
		Token: token,
	})
}

// SetCookie places a previously issued assertion into the httpOnly cookie.
//
// @Summary      Store a session assertion in the session cookie
// @Tags         auth
// @Accept       json
// @Param        body  body      setCookieRequest  true  "Assertion"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Router       /api/auth/set-cookie [post]
func (h *AuthHandler) SetCookie(c echo.Context) error {
	var req setCookieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	h.cookies.Issue(c, req.Token)
	return c.NoContent(http.StatusNoContent)
}

// ClearCookie expires the session cookie and denylists the presented
// assertion. Always succeeds; clearing an absent session is a no-op.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /api/auth/clear-cookie [post]
func (h *AuthHandler) ClearCookie(c echo.Context) error {
	if token := h.cookies.Read(c.Request()); token != "" {
		if err := h.revoker.Revoke(c.Request().Context(), token); err != nil {
			// Cookie removal still proceeds; the assertion dies at expiry.
			h.log.Warn().Err(err).Msg("assertion revocation failed on logout")
		} else {
			metrics.SessionRevocationsTotal.Inc()
		}
	}

	h.cookies.Revoke(c)
	return c.NoContent(http.StatusNoContent)
}

// Me resolves the propagated session assertion into the caller's identity.
// The surface guards use this as their identity-resolution endpoint.
//
// @Summary      Resolve the current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := apimw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session presented")
	}
	return c.JSON(http.StatusOK, meResponse{ID: identity.ID(), Role: identity.Role()})
}

func registerOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrIdentityExists):
		return "conflict"
	}
	return "error"
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "unauthorized"
	}
	return "error"
}
