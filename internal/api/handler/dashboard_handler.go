package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apimw "github.com/shopsphere/storefront/internal/api/middleware"
	"github.com/shopsphere/storefront/internal/core/ports"
)

// DashboardHandler serves the data endpoints behind the gated surfaces.
// These are the downstream handlers the edge relay forwards identity to;
// each independently verifies the assertion via the Authenticate and
// RequireRole middleware before trusting the role.
type DashboardHandler struct {
	identities ports.IdentityRepository
}

func NewDashboardHandler(identities ports.IdentityRepository) *DashboardHandler {
	return &DashboardHandler{identities: identities}
}

type adminSummaryResponse struct {
	IdentitiesByRole map[string]int64 `json:"identities_by_role"`
}

type vendorSummaryResponse struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
}

// AdminSummary returns identity counts per role.
//
// @Summary      Admin console summary
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  adminSummaryResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/admin/summary [get]
func (h *DashboardHandler) AdminSummary(c echo.Context) error {
	counts, err := h.identities.CountByRole(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminSummaryResponse{IdentitiesByRole: counts})
}

// VendorSummary returns the authenticated vendor's own view.
//
// @Summary      Vendor dashboard summary
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  vendorSummaryResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/vendor/summary [get]
func (h *DashboardHandler) VendorSummary(c echo.Context) error {
	identity, ok := apimw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session presented")
	}
	return c.JSON(http.StatusOK, vendorSummaryResponse{
		IdentityID: identity.ID(),
		Role:       identity.Role(),
	})
}
