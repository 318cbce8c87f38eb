package guard

import (
	"net/url"
	"strings"
	"sync"

	adminsession "github.com/digistarclub/adminsession"
)

// Decision is the outcome of an authorization evaluation.
type Decision uint8

const (
	// DecisionPending means the session is still validating persisted state;
	// render nothing conclusive and re-evaluate after it settles.
	DecisionPending Decision = iota
	// DecisionGrant permits the navigation.
	DecisionGrant
	// DecisionDeny refuses the navigation, usually with a redirect request.
	DecisionDeny
)

// RedirectParam carries the attempted path to the entry route so the
// application can return there after sign-in.
const RedirectParam = "redirect"

// Result is the evaluation outcome. Redirect is the requested navigation
// target; it is empty when no redirect is needed or when the loop latch
// already issued one for the same evaluation key.
type Result struct {
	Decision Decision
	Redirect string
}

// Granted reports whether the navigation may proceed.
func (r Result) Granted() bool { return r.Decision == DecisionGrant }

// Guard evaluates role-gated navigation against session snapshots. A single
// Guard instance carries the redirect latch and is safe for concurrent use.
type Guard struct {
	routes adminsession.RouteConfig

	mu    sync.Mutex
	latch string
}

// New returns a Guard for the given route surface.
func New(routes adminsession.RouteConfig) *Guard {
	return &Guard{routes: routes}
}

// Authorize gates access to location for a route requiring any of
// requiredRoles. An empty requiredRoles grants every authenticated visitor
// regardless of role. Role comparison is case-insensitive.
func (g *Guard) Authorize(snap adminsession.Snapshot, location string, requiredRoles ...string) Result {
	if snap.Initializing() {
		g.reset()
		return Result{Decision: DecisionPending}
	}

	if !snap.Authenticated() {
		if location == g.routes.Entry {
			return Result{Decision: DecisionDeny}
		}
		return g.deny("anonymous|"+location, entryRedirect(g.routes.Entry, location))
	}

	if len(requiredRoles) > 0 && !snap.Profile.HasRole(requiredRoles...) {
		if location == g.routes.Unauthorized {
			return Result{Decision: DecisionDeny}
		}
		key := "role|" + strings.ToLower(snap.Profile.Role) + "|" + location
		return g.deny(key, g.routes.Unauthorized)
	}

	g.reset()
	return Result{Decision: DecisionGrant}
}

// deny issues the redirect at most once per evaluation key. A repeat
// evaluation with an unchanged key returns the denial without a second
// redirect request.
func (g *Guard) deny(key, target string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.latch == key {
		return Result{Decision: DecisionDeny}
	}
	g.latch = key
	return Result{Decision: DecisionDeny, Redirect: target}
}

func (g *Guard) reset() {
	g.mu.Lock()
	g.latch = ""
	g.mu.Unlock()
}

// entryRedirect builds the entry-route target carrying the attempted path.
func entryRedirect(entry, location string) string {
	if location == "" {
		return entry
	}
	values := url.Values{RedirectParam: []string{location}}
	return entry + "?" + values.Encode()
}
