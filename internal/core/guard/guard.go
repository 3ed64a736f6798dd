// Package guard implements the per-surface render gate. Each protected
// surface (consumer account, admin console, vendor console, seller
// dashboard) evaluates one Guard per render cycle: the guard stays in
// StateLoading while identity resolution is in flight, then settles into
// exactly one of StateAuthenticated or StateUnauthenticated and reports
// the render-or-redirect decision.
package guard

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopsphere/storefront/internal/core/domain"
)

// State is the guard's render gate state.
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Resolution is the outcome of resolving the current session.
type Resolution struct {
	Authenticated bool
	IdentityID    string
	Role          string
}

// Resolver resolves the current session. Implementations must treat a
// missing or invalid session as a normal unauthenticated resolution, not
// an error; errors are reserved for resolution machinery failures and are
// degraded to unauthenticated by the guard.
type Resolver interface {
	Resolve(ctx context.Context) (Resolution, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context) (Resolution, error)

func (f ResolverFunc) Resolve(ctx context.Context) (Resolution, error) { return f(ctx) }

// Surface describes one protected application surface.
type Surface struct {
	Name string
	// RequiredRole is the role the surface demands. Empty means any
	// authenticated identity (presence-only check).
	RequiredRole string
	// LoginPath is the redirect target for unauthenticated visitors.
	LoginPath string
	// BarePathPrefixes lists paths rendered without the surface chrome
	// even when authenticated (e.g. vendor onboarding).
	BarePathPrefixes []string
}

// Authorizes applies the shared authorization predicate to a resolved role.
func (s Surface) Authorizes(role string) bool {
	if s.RequiredRole == "" {
		return domain.RoleAllowed(role)
	}
	return domain.RoleAllowed(role, s.RequiredRole)
}

// Bare reports whether the path renders without chrome.
func (s Surface) Bare(path string) bool {
	for _, prefix := range s.BarePathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Decision is the guard's verdict for a single render cycle.
type Decision struct {
	State       State
	IdentityID  string
	Role        string
	RedirectURL string
	WithChrome  bool
}

// DefaultTimeout bounds how long a guard waits in StateLoading before it
// degrades the cycle to unauthenticated.
const DefaultTimeout = 5 * time.Second

// Guard is the state machine gating one surface. A fresh Evaluate call
// starts a new resolution cycle; the only transitions are
// loading → unauthenticated and loading → authenticated.
type Guard struct {
	surface  Surface
	resolver Resolver
	timeout  time.Duration

	mu    sync.Mutex
	state State
	role  string
}

// Option configures a Guard.
type Option func(*Guard)

// WithTimeout overrides the bounded loading wait.
func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// New creates a guard for the surface.
func New(surface Surface, resolver Resolver, opts ...Option) *Guard {
	g := &Guard{
		surface:  surface,
		resolver: resolver,
		timeout:  DefaultTimeout,
		state:    StateLoading,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the guard's current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Evaluate runs one full resolution cycle for the requested path.
//
// If ctx is cancelled before resolution completes (the surface went away),
// the result is discarded: the returned decision stays in StateLoading with
// no redirect, and the guard does not transition. If resolution outlives
// the configured timeout, the cycle degrades to unauthenticated so a hung
// resolver turns into a login redirect rather than an indefinite spinner.
func (g *Guard) Evaluate(ctx context.Context, requestedPath string) Decision {
	g.mu.Lock()
	g.state = StateLoading
	g.role = ""
	g.mu.Unlock()

	type outcome struct {
		res Resolution
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := g.resolver.Resolve(ctx)
		ch <- outcome{res: res, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Decision{State: StateLoading}
	case <-timer.C:
		return g.apply(Resolution{}, requestedPath)
	case out := <-ch:
		if ctx.Err() != nil {
			// The surface is already gone; acting on this resolution
			// would be a stale transition.
			return Decision{State: StateLoading}
		}
		if out.err != nil {
			return g.apply(Resolution{}, requestedPath)
		}
		return g.apply(out.res, requestedPath)
	}
}

// Reapply recomputes the gate from an already-delivered resolution, e.g.
// when a subscribed session broker reports that the session changed.
func (g *Guard) Reapply(res Resolution, requestedPath string) Decision {
	return g.apply(res, requestedPath)
}

// Watch subscribes the guard to a broker so a session change elsewhere
// (logout in another surface) re-evaluates this gate. The returned cancel
// must be called when the surface unmounts.
func (g *Guard) Watch(b *Broker, requestedPath string) (cancel func()) {
	return b.Subscribe(func(res Resolution) {
		g.apply(res, requestedPath)
	})
}

func (g *Guard) apply(res Resolution, requestedPath string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if res.Authenticated && g.surface.Authorizes(res.Role) {
		g.state = StateAuthenticated
		g.role = res.Role
		return Decision{
			State:      StateAuthenticated,
			IdentityID: res.IdentityID,
			Role:       res.Role,
			WithChrome: !g.surface.Bare(requestedPath),
		}
	}

	g.state = StateUnauthenticated
	g.role = ""
	redirect := g.surface.LoginPath
	if requestedPath != "" {
		redirect += "?callbackUrl=" + url.QueryEscape(requestedPath)
	}
	return Decision{State: StateUnauthenticated, RedirectURL: redirect}
}
