package adminsession

import (
	"errors"
	"strings"
	"time"
)

// Config groups the Manager's tunables. A Builder starts from
// [DefaultConfig]; Validate runs during Build.
type Config struct {
	Routes  RouteConfig
	Events  EventConfig
	Session SessionConfig
	Sync    SyncConfig
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig names the routes the session core consumes but does not own:
// the entry route hosting the sign-in form, the post-login landing route,
// and the unauthorized route for role mismatches.
type RouteConfig struct {
	Entry        string
	Landing      string
	Unauthorized string
}

/*
====================================
EVENT CONFIG
====================================
*/

// EventConfig controls the event dispatcher. When Enabled is false no
// dispatcher goroutine is started and events are discarded.
type EventConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the emitting operation
	// when the buffer is full.
	DropIfFull bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls expiry handling.
type SessionConfig struct {
	// ExpiryLeeway is subtracted from the token expiry when arming the
	// auto-logout timer, so teardown lands before the server rejects the
	// token. Zero means fire exactly at the expiry instant.
	ExpiryLeeway time.Duration
	// MinTTL rejects tokens that would expire almost immediately; a restored
	// or freshly issued token with less remaining lifetime is treated as
	// already expired.
	MinTTL time.Duration
}

/*
====================================
SYNC CONFIG
====================================
*/

// SyncConfig controls multi-process session synchronization through the
// vault. When WatchVault is set and the configured store supports watching,
// the Manager re-reads the vault on external change and emits the matching
// event (last write wins).
type SyncConfig struct {
	WatchVault bool
}

// DefaultConfig returns the configuration a plain New() starts from. Callers
// tweaking a single field should mutate a DefaultConfig rather than build a
// Config from zero.
func DefaultConfig() Config {
	return Config{
		Routes: RouteConfig{
			Entry:        "/",
			Landing:      "/dashboard",
			Unauthorized: "/unauthorized",
		},
		Events: EventConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Session: SessionConfig{
			ExpiryLeeway: 0,
			MinTTL:       0,
		},
		Sync: SyncConfig{
			WatchVault: false,
		},
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	for _, route := range []string{c.Routes.Entry, c.Routes.Landing, c.Routes.Unauthorized} {
		if strings.TrimSpace(route) == "" {
			return errors.New("route configuration contains an empty route")
		}
		if !strings.HasPrefix(route, "/") {
			return errors.New("routes must be absolute paths")
		}
	}
	if c.Events.Enabled && c.Events.BufferSize < 0 {
		return errors.New("event buffer size must not be negative")
	}
	if c.Session.ExpiryLeeway < 0 {
		return errors.New("expiry leeway must not be negative")
	}
	if c.Session.ExpiryLeeway > time.Hour {
		return errors.New("expiry leeway above one hour is unreasonable")
	}
	if c.Session.MinTTL < 0 {
		return errors.New("minimum TTL must not be negative")
	}
	return nil
}
