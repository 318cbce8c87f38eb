// Package guard decides whether a navigation attempt is permitted, given the
// current session snapshot and the route's declared role requirement.
//
// [Guard.Authorize] is the pure decision engine: pending while the session is
// still initializing, deny-with-redirect for anonymous visitors and role
// mismatches, grant otherwise. A one-shot latch guarantees that repeated
// evaluations of the same (location, auth state) request at most one
// redirect, preventing redirect loops; the latch resets when either
// dependency changes.
//
// [Middleware] adapts the decision engine to net/http for server-rendered
// admin shells. The guard never mutates session state.
package guard
