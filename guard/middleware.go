package guard

import (
	"context"
	"net/http"

	adminsession "github.com/digistarclub/adminsession"
)

type profileContextKey struct{}

// ProfileFromContext returns the authenticated profile injected by
// [Middleware] for granted requests.
func ProfileFromContext(ctx context.Context) (*adminsession.Profile, bool) {
	p, ok := ctx.Value(profileContextKey{}).(*adminsession.Profile)
	return p, ok
}

// Middleware adapts the guard to net/http for server-rendered admin shells.
// Pending evaluations answer 503 with a retry hint, denials redirect (or
// answer 401/403 when the latch suppressed the redirect), grants inject the
// profile into the request context and call the next handler.
//
// All requests passing through one Middleware share the guard's redirect
// latch; each protected route should get its own Guard.
func Middleware(mgr *adminsession.Manager, g *Guard, requiredRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mgr == nil || g == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			snap := mgr.Snapshot()
			result := g.Authorize(snap, r.URL.Path, requiredRoles...)

			switch result.Decision {
			case DecisionPending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session initializing", http.StatusServiceUnavailable)
			case DecisionDeny:
				if result.Redirect != "" {
					http.Redirect(w, r, result.Redirect, http.StatusFound)
					return
				}
				if !snap.Authenticated() {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			case DecisionGrant:
				ctx := context.WithValue(r.Context(), profileContextKey{}, snap.Profile)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
