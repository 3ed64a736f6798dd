package guard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopsphere/storefront/internal/core/domain"
)

func staticResolver(res Resolution) Resolver {
	return ResolverFunc(func(ctx context.Context) (Resolution, error) {
		return res, nil
	})
}

var testAdminSurface = Surface{
	Name:         "admin",
	RequiredRole: domain.RoleAdmin,
	LoginPath:    "/login",
}

var testAccountSurface = Surface{
	Name:      "account",
	LoginPath: "/login",
}

var testVendorSurface = Surface{
	Name:             "vendor",
	RequiredRole:     domain.RoleVendor,
	LoginPath:        "/login",
	BarePathPrefixes: []string{"/vendor/create-account"},
}

func TestGuard_AuthenticatedOnMatchingRole(t *testing.T) {
	g := New(testAdminSurface, staticResolver(Resolution{
		Authenticated: true,
		IdentityID:    "id-1",
		Role:          domain.RoleAdmin,
	}))

	decision := g.Evaluate(context.Background(), "/admin/settings")
	if decision.State != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", decision.State)
	}
	if decision.Role != domain.RoleAdmin || decision.IdentityID != "id-1" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	if !decision.WithChrome {
		t.Fatalf("expected chrome on a regular path")
	}
	if g.State() != StateAuthenticated {
		t.Fatalf("guard state not updated: %s", g.State())
	}
}

func TestGuard_WrongRoleEndsUnauthenticated(t *testing.T) {
	// A consumer visiting the admin surface must never reach
	// authenticated, only unauthenticated with a redirect.
	g := New(testAdminSurface, staticResolver(Resolution{
		Authenticated: true,
		IdentityID:    "id-2",
		Role:          domain.RoleConsumer,
	}))

	decision := g.Evaluate(context.Background(), "/admin")
	if decision.State != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", decision.State)
	}
	if !strings.HasPrefix(decision.RedirectURL, "/login?callbackUrl=") {
		t.Fatalf("expected login redirect with callback, got %q", decision.RedirectURL)
	}
	if !strings.Contains(decision.RedirectURL, "%2Fadmin") {
		t.Fatalf("callback does not carry the requested path: %q", decision.RedirectURL)
	}
}

func TestGuard_PresenceOnlySurfaceAcceptsAnyRole(t *testing.T) {
	for _, role := range []string{domain.RoleConsumer, domain.RoleVendor, domain.RoleAdmin} {
		g := New(testAccountSurface, staticResolver(Resolution{Authenticated: true, Role: role}))
		if d := g.Evaluate(context.Background(), "/account"); d.State != StateAuthenticated {
			t.Fatalf("role %s: expected authenticated, got %s", role, d.State)
		}
	}
}

func TestGuard_NoSessionRedirects(t *testing.T) {
	g := New(testAccountSurface, staticResolver(Resolution{}))

	decision := g.Evaluate(context.Background(), "/account/orders")
	if decision.State != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", decision.State)
	}
	if decision.RedirectURL != "/login?callbackUrl=%2Faccount%2Forders" {
		t.Fatalf("unexpected redirect: %q", decision.RedirectURL)
	}
}

func TestGuard_ResolverErrorDegradesToUnauthenticated(t *testing.T) {
	g := New(testAccountSurface, ResolverFunc(func(ctx context.Context) (Resolution, error) {
		return Resolution{}, errors.New("resolution backend down")
	}))

	if d := g.Evaluate(context.Background(), "/account"); d.State != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", d.State)
	}
}

func TestGuard_BarePathRendersWithoutChrome(t *testing.T) {
	g := New(testVendorSurface, staticResolver(Resolution{Authenticated: true, Role: domain.RoleVendor}))

	onboarding := g.Evaluate(context.Background(), "/vendor/create-account")
	if onboarding.State != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", onboarding.State)
	}
	if onboarding.WithChrome {
		t.Fatalf("onboarding path must render without chrome")
	}

	dashboard := g.Evaluate(context.Background(), "/vendor/products")
	if !dashboard.WithChrome {
		t.Fatalf("dashboard path must render with chrome")
	}
}

func TestGuard_TimeoutResolvesUnauthenticated(t *testing.T) {
	blocked := ResolverFunc(func(ctx context.Context) (Resolution, error) {
		<-ctx.Done()
		return Resolution{}, ctx.Err()
	})
	g := New(testAccountSurface, blocked, WithTimeout(20*time.Millisecond))

	start := time.Now()
	decision := g.Evaluate(context.Background(), "/account")
	if decision.State != StateUnauthenticated {
		t.Fatalf("expected unauthenticated after timeout, got %s", decision.State)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout did not bound the wait")
	}
}

func TestGuard_CancelledContextDiscardsResolution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(testAccountSurface, ResolverFunc(func(ctx context.Context) (Resolution, error) {
		return Resolution{Authenticated: true, Role: domain.RoleAdmin}, nil
	}))

	decision := g.Evaluate(ctx, "/account")
	if decision.State != StateLoading {
		t.Fatalf("expected discarded cycle to stay loading, got %s", decision.State)
	}
	if decision.RedirectURL != "" {
		t.Fatalf("discarded cycle must not redirect")
	}
}

func TestBroker_NotifiesSubscribersOnChange(t *testing.T) {
	current := Resolution{Authenticated: true, Role: domain.RoleVendor}
	broker := NewBroker(ResolverFunc(func(ctx context.Context) (Resolution, error) {
		return current, nil
	}))

	g := New(testVendorSurface, broker)
	if d := g.Evaluate(context.Background(), "/vendor"); d.State != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", d.State)
	}

	cancel := g.Watch(broker, "/vendor")
	defer cancel()

	// Logout elsewhere: the broker re-resolves and the subscribed guard
	// must flip to unauthenticated without a fresh Evaluate call.
	current = Resolution{}
	broker.Invalidate(context.Background())

	if g.State() != StateUnauthenticated {
		t.Fatalf("expected guard to follow broker to unauthenticated, got %s", g.State())
	}
}

func TestBroker_UnchangedResultDoesNotNotify(t *testing.T) {
	broker := NewBroker(staticResolver(Resolution{Authenticated: true, Role: domain.RoleAdmin}))

	notifications := 0
	cancel := broker.Subscribe(func(Resolution) { notifications++ })
	defer cancel()

	for i := 0; i < 3; i++ {
		if _, err := broker.Resolve(context.Background()); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
	}

	if notifications != 1 {
		t.Fatalf("expected exactly one notification, got %d", notifications)
	}
}

func TestBroker_CancelledSubscriptionStopsNotifications(t *testing.T) {
	current := Resolution{Authenticated: true, Role: domain.RoleAdmin}
	broker := NewBroker(ResolverFunc(func(ctx context.Context) (Resolution, error) {
		return current, nil
	}))

	notifications := 0
	cancel := broker.Subscribe(func(Resolution) { notifications++ })

	broker.Invalidate(context.Background())
	cancel()
	cancel() // second cancel must be safe

	current = Resolution{}
	broker.Invalidate(context.Background())

	if notifications != 1 {
		t.Fatalf("expected one notification before cancel, got %d", notifications)
	}
}
