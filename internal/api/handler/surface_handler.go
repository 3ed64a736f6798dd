package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shopsphere/storefront/internal/api/metrics"
	apimw "github.com/shopsphere/storefront/internal/api/middleware"
	"github.com/shopsphere/storefront/internal/api/session"
	"github.com/shopsphere/storefront/internal/core/domain"
	"github.com/shopsphere/storefront/internal/core/guard"
	"github.com/shopsphere/storefront/internal/pkg/urlfilter"
)

const loginPath = "/login"

// Surface definitions. The account surface takes any authenticated
// identity; admin demands the admin role; vendor and seller both demand
// the vendor role. Vendor onboarding renders without dashboard chrome.
var (
	accountSurface = guard.Surface{
		Name:      "account",
		LoginPath: loginPath,
	}
	adminSurface = guard.Surface{
		Name:         "admin",
		RequiredRole: domain.RoleAdmin,
		LoginPath:    loginPath,
	}
	vendorSurface = guard.Surface{
		Name:             "vendor",
		RequiredRole:     domain.RoleVendor,
		LoginPath:        loginPath,
		BarePathPrefixes: []string{"/vendor/create-account"},
	}
	sellerSurface = guard.Surface{
		Name:         "seller",
		RequiredRole: domain.RoleVendor,
		LoginPath:    loginPath,
	}
)

// defaultAvatar is rendered when an externally supplied avatar URL fails
// the trust filter.
const defaultAvatar = "/static/img/avatar-placeholder.png"

// surfaceView is the render payload for an authenticated surface, chrome
// metadata included.
type surfaceView struct {
	Surface    string `json:"surface"`
	Path       string `json:"path"`
	WithChrome bool   `json:"with_chrome"`
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
	AvatarURL  string `json:"avatar_url"`
}

type loginView struct {
	CallbackURL string `json:"callback_url,omitempty"`
}

// SurfaceHandler gates the four dashboard surfaces through per-render
// guard evaluations over the session cookie.
type SurfaceHandler struct {
	verifier apimw.TokenVerifier
	cookies  *session.Manager
	filter   *urlfilter.Filter
	timeout  time.Duration
	log      zerolog.Logger
}

func NewSurfaceHandler(verifier apimw.TokenVerifier, cookies *session.Manager, filter *urlfilter.Filter, log zerolog.Logger) *SurfaceHandler {
	return &SurfaceHandler{
		verifier: verifier,
		cookies:  cookies,
		filter:   filter,
		timeout:  guard.DefaultTimeout,
		log:      log,
	}
}

func (h *SurfaceHandler) Account(c echo.Context) error { return h.gate(c, accountSurface) }
func (h *SurfaceHandler) Admin(c echo.Context) error   { return h.gate(c, adminSurface) }
func (h *SurfaceHandler) Vendor(c echo.Context) error  { return h.gate(c, vendorSurface) }
func (h *SurfaceHandler) Seller(c echo.Context) error  { return h.gate(c, sellerSurface) }

// Login is the public login entry point unauthenticated visitors are
// redirected to; it echoes the callback so the client returns to the
// originally requested path after authenticating.
func (h *SurfaceHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, loginView{CallbackURL: c.QueryParam("callbackUrl")})
}

// gate runs one guard cycle for the request and renders or redirects.
// Protected content is never emitted before the decision settles.
func (h *SurfaceHandler) gate(c echo.Context, surface guard.Surface) error {
	token := h.cookies.Read(c.Request())

	broker := guard.NewBroker(guard.ResolverFunc(func(ctx context.Context) (guard.Resolution, error) {
		if token == "" {
			return guard.Resolution{}, nil
		}
		identity, err := h.verifier.Verify(ctx, token)
		if err != nil {
			// Invalid session is a normal unauthenticated resolution.
			return guard.Resolution{}, nil
		}
		return guard.Resolution{
			Authenticated: true,
			IdentityID:    identity.ID(),
			Role:          identity.Role(),
		}, nil
	}))

	g := guard.New(surface, broker, guard.WithTimeout(h.timeout))
	decision := g.Evaluate(c.Request().Context(), c.Request().URL.Path)
	metrics.SurfaceDecisionsTotal.WithLabelValues(surface.Name, decision.State.String()).Inc()

	switch decision.State {
	case guard.StateAuthenticated:
		return c.JSON(http.StatusOK, surfaceView{
			Surface:    surface.Name,
			Path:       c.Request().URL.Path,
			WithChrome: decision.WithChrome,
			IdentityID: decision.IdentityID,
			Role:       decision.Role,
			AvatarURL:  h.safeAvatar(c),
		})
	case guard.StateUnauthenticated:
		return c.Redirect(http.StatusSeeOther, decision.RedirectURL)
	default:
		// Request context ended before resolution; nothing to render.
		return nil
	}
}

// safeAvatar passes the externally supplied avatar URL through the trust
// filter, falling back to the bundled placeholder.
func (h *SurfaceHandler) safeAvatar(c echo.Context) string {
	raw := c.QueryParam("avatar")
	if raw == "" {
		return defaultAvatar
	}
	safe, ok := h.filter.Sanitize(raw)
	if !ok {
		metrics.UnsafeURLRejectionsTotal.Inc()
		return defaultAvatar
	}
	return safe
}
