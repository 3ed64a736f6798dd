// Package metrics defines and registers all custom Prometheus metrics for
// the storefront trust service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics use promauto and register with the default registry at package
// init; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Credential metrics ────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Labels:
//   - result: "created", "validation_error", "conflict", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - result: "ok", "validation_error", "unauthorized", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// TokenVerificationsTotal counts session assertion verifications performed
// by the authentication middleware.
// Label:
//   - result: "ok", "invalid", "missing"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of session assertion verifications, by result.",
	},
	[]string{"result"},
)

// SessionRevocationsTotal counts explicit logouts that denylisted an
// assertion.
var SessionRevocationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_revocations_total",
		Help:      "Total number of session assertions explicitly revoked.",
	},
)

// ── Surface metrics ───────────────────────────────────────────────────────────

// SurfaceDecisionsTotal counts guard decisions per surface.
// Labels:
//   - surface: "account", "admin", "vendor", "seller"
//   - state: "loading", "unauthenticated", "authenticated"
var SurfaceDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "surface_decisions_total",
		Help:      "Total number of surface guard decisions, by surface and resulting state.",
	},
	[]string{"surface", "state"},
)

// UnsafeURLRejectionsTotal counts externally supplied image URLs rejected
// by the trust filter.
var UnsafeURLRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unsafe_url_rejections_total",
		Help:      "Total number of externally supplied image URLs rejected as unsafe.",
	},
)
