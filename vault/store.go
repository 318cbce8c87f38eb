package vault

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by [Store.Load] when no session is persisted.
var ErrNotFound = errors.New("no stored session")

// ErrCorrupt is returned by [Store.Load] when a persisted blob cannot be
// decoded. Callers treat it as "no session" and should clear the store.
var ErrCorrupt = errors.New("stored session corrupt")

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("vault backend unavailable")

// Profile is the persisted identity alongside the token. It mirrors the
// display fields of the signed-in administrator.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Record is the unit of persistence: the opaque bearer token plus the
// profile it belongs to.
type Record struct {
	Token   string
	Profile Profile
}

// Store persists at most one session record per device fingerprint.
type Store interface {
	// Save replaces the stored record. ttl is the token's remaining
	// lifetime; backends with native expiry honor it, others ignore it.
	Save(ctx context.Context, rec *Record, ttl time.Duration) error
	// Load returns the stored record, ErrNotFound when absent, or
	// ErrCorrupt when the blobs cannot be decoded.
	Load(ctx context.Context) (*Record, error)
	// Clear removes the stored record. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Watcher is implemented by stores that can signal external modification,
// enabling multi-process session synchronization. Each signal means "the
// vault may have changed"; receivers re-read and reconcile.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
