package adminsession

import (
	"context"
	"strings"
)

// State is the lifecycle state of the process-wide session.
type State uint8

const (
	// StateUninitialized is the state before the first [Manager.Initialize].
	StateUninitialized State = iota
	// StateInitializing is the transient boot state while the persisted
	// session is being validated.
	StateInitializing
	// StateAnonymous means no non-expired access token is held.
	StateAnonymous
	// StateAuthenticated means a non-expired access token and profile are held.
	StateAuthenticated
)

// String describes the state for logs and test failures.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Well-known Digistar Club admin roles. The closed set is defined by the
// platform API; these constants exist for callers, not for validation.
const (
	RoleSuperAdministrator = "super-administrator"
	RoleAdministrator      = "administrator"
	RoleMember             = "member"
)

// Profile identifies the authenticated administrator. It is present on a
// [Snapshot] iff the session is authenticated.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// HasRole reports whether the profile's role matches any of the given roles.
// Comparison is case-insensitive; see [Manager.HasRole].
func (p *Profile) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if strings.EqualFold(p.Role, role) {
			return true
		}
	}
	return false
}

// Snapshot is an immutable view of the session for guards and UI code.
// LastError holds the most recent authentication failure and is cleared by
// the next successful operation.
type Snapshot struct {
	State     State
	Profile   *Profile
	LastError error
}

// Authenticated reports whether the snapshot carries a signed-in profile.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Profile != nil
}

// Initializing reports whether the session is still validating persisted
// state. Guards must stay undecided while this is true.
func (s Snapshot) Initializing() bool {
	return s.State == StateUninitialized || s.State == StateInitializing
}

// Transport exchanges credentials with the Digistar Club API. The rest
// package provides the production implementation; tests substitute stubs.
type Transport interface {
	// Login exchanges credentials for a bearer access token.
	Login(ctx context.Context, email, password string) (accessToken string, err error)
	// Logout invalidates the server-side session for the given token.
	Logout(ctx context.Context, accessToken string) error
}

// Navigator receives navigation requests from the Manager: to the entry route
// after logout or expiry. Implementations typically drive the host
// application's router. The Manager never navigates on its own.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to the [Navigator] interface.
type NavigatorFunc func(target string)

// Navigate calls fn(target).
func (fn NavigatorFunc) Navigate(target string) { fn(target) }

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}
