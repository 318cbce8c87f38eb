package adminsession

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/digistarclub/adminsession/token"
	"github.com/digistarclub/adminsession/vault"
	"golang.org/x/sync/singleflight"
)

// Manager is the single source of truth for the authenticated-admin session.
// It owns the access-token lifecycle: restore at boot, persist on login,
// tear down on logout or expiry, and broadcast every change through the
// event dispatcher.
//
// Construct through [Builder.Build], call [Manager.Initialize] exactly once
// at application start, and [Manager.Close] on shutdown.
type Manager struct {
	config    Config
	transport Transport
	vault     vault.Store
	nav       Navigator
	clock     Clock
	events    *eventDispatcher
	metrics   *Metrics

	flight singleflight.Group

	mu      sync.Mutex
	state   State
	profile *Profile
	token   string
	lastErr error
	timer   Timer
	closed  bool

	watchStop context.CancelFunc
	watchWG   sync.WaitGroup
}

// Initialize restores a previously persisted session. It runs the boot
// transition exactly once: only StateUninitialized accepts it, every later
// call returns [ErrAlreadyInitialized] without touching state.
//
// An absent token leaves the session anonymous. An expired token clears the
// vault, emits [EventSessionExpired], and requests navigation to the entry
// route. A malformed token or unreadable vault is treated as corrupt state:
// cleared silently, resolving to anonymous. Restore failures never propagate.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.state = StateInitializing
	m.mu.Unlock()

	rec, err := m.vault.Load(ctx)

	var (
		expired bool
		profile *Profile
	)

	m.mu.Lock()
	switch {
	case m.state != StateInitializing:
		// A login completed while the vault was being read; the fresh
		// session wins and the stored record is ignored.
	case err != nil:
		if errors.Is(err, vault.ErrCorrupt) {
			m.metrics.Inc(MetricVaultCorrupt)
			m.clearVaultLocked(ctx)
		}
		m.state = StateAnonymous
	case rec == nil || rec.Token == "":
		m.state = StateAnonymous
	default:
		expired, profile = m.restoreLocked(ctx, rec)
	}
	m.mu.Unlock()

	now := m.clock.Now()
	switch {
	case expired:
		m.metrics.Inc(MetricSessionExpired)
		m.emit(ctx, Event{Type: EventSessionExpired, Timestamp: now})
		m.emit(ctx, Event{Type: EventLoggedOut, Timestamp: now})
		m.nav.Navigate(m.config.Routes.Entry)
	case profile != nil:
		m.metrics.Inc(MetricSessionRestored)
	}

	m.startWatch()
	return nil
}

// restoreLocked validates the stored record and either adopts it or clears
// it. It reports (expired, restored profile); both zero means the record was
// corrupt and has been discarded silently.
func (m *Manager) restoreLocked(ctx context.Context, rec *vault.Record) (bool, *Profile) {
	claims, err := token.Decode(rec.Token)
	if err != nil {
		m.metrics.Inc(MetricVaultCorrupt)
		m.clearVaultLocked(ctx)
		m.state = StateAnonymous
		return false, nil
	}

	ttl := m.effectiveTTL(claims)
	if ttl <= 0 {
		m.clearVaultLocked(ctx)
		m.state = StateAnonymous
		return true, nil
	}

	profile := profileFromRecord(rec, claims)
	m.token = rec.Token
	m.profile = profile
	m.state = StateAuthenticated
	m.armTimerLocked(ttl)
	return false, profile.clone()
}

// effectiveTTL is the remaining token lifetime after leeway, against the
// injected clock. Values at or below MinTTL count as already expired.
func (m *Manager) effectiveTTL(claims *token.Claims) time.Duration {
	ttl := claims.TTL(m.clock.Now()) - m.config.Session.ExpiryLeeway
	if ttl <= m.config.Session.MinTTL {
		return 0
	}
	return ttl
}

// armTimerLocked schedules the auto-logout callback, replacing any pending
// timer. At most one timer is ever armed; last scheduled wins.
func (m *Manager) armTimerLocked(ttl time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.clock.AfterFunc(ttl, m.expire)
}

// expire is the timer callback. Expiry is authoritative: the session is torn
// down unconditionally, with the passive expiry notice.
func (m *Manager) expire() {
	ctx := context.Background()

	m.mu.Lock()
	if m.closed || m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.clearVaultLocked(ctx)
	m.stopTimerLocked()
	m.token = ""
	m.profile = nil
	m.state = StateAnonymous
	m.mu.Unlock()

	now := m.clock.Now()
	m.metrics.Inc(MetricSessionExpired)
	m.emit(ctx, Event{Type: EventSessionExpired, Timestamp: now})
	m.emit(ctx, Event{Type: EventLoggedOut, Timestamp: now})
	m.nav.Navigate(m.config.Routes.Entry)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// clearVaultLocked wipes persisted state. Write failures are best-effort:
// the in-memory teardown must proceed regardless.
func (m *Manager) clearVaultLocked(ctx context.Context) {
	if err := m.vault.Clear(ctx); err != nil {
		log.Print("adminsession: vault clear failed")
	}
}

// Snapshot returns an immutable view of the session for guards and UI code.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		State:     m.state,
		Profile:   m.profile.clone(),
		LastError: m.lastErr,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AccessToken returns the held bearer token, or "" when anonymous. Callers
// use it to authenticate follow-up API requests.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Routes returns the configured route surface.
func (m *Manager) Routes() RouteConfig {
	return m.config.Routes
}

// MetricsSnapshot copies the in-process counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return m.metrics.Snapshot()
}

// EventsDropped reports how many events the dispatcher discarded because the
// buffer was full.
func (m *Manager) EventsDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.events.Dropped()
}

// Close stops the vault watcher, the pending expiry timer, and the event
// dispatcher. The Manager is unusable afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopTimerLocked()
	stop := m.watchStop
	m.watchStop = nil
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	m.watchWG.Wait()
	m.events.Close()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) emit(ctx context.Context, event Event) {
	if m.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = m.clock.Now()
	}
	m.events.Emit(ctx, event)
}

// startWatch subscribes to external vault changes when the store supports it
// and the config asks for it. Errors are logged and disable sync; the
// session still works single-process.
func (m *Manager) startWatch() {
	if !m.config.Sync.WatchVault {
		return
	}
	watcher, ok := m.vault.(vault.Watcher)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := watcher.Watch(ctx)
	if err != nil {
		cancel()
		log.Print("adminsession: vault watch unavailable")
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return
	}
	m.watchStop = cancel
	m.mu.Unlock()

	m.watchWG.Add(1)
	go func() {
		defer m.watchWG.Done()
		for {
			select {
			case _, open := <-changes:
				if !open {
					return
				}
				m.resync(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// resync reconciles in-memory state with the shared vault after another
// process wrote it. Consumers of the resulting events did not initiate the
// change; last write wins.
func (m *Manager) resync(ctx context.Context) {
	rec, err := m.vault.Load(ctx)

	var event *Event

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	switch {
	case err != nil || rec == nil || rec.Token == "":
		if m.state == StateAuthenticated {
			m.stopTimerLocked()
			m.token = ""
			m.profile = nil
			m.state = StateAnonymous
			event = &Event{Type: EventLoggedOut}
		}
	case rec.Token == m.token:
		// Our own write echoed back.
	default:
		claims, derr := token.Decode(rec.Token)
		if derr != nil {
			break
		}
		ttl := m.effectiveTTL(claims)
		if ttl <= 0 {
			break
		}
		profile := profileFromRecord(rec, claims)
		m.token = rec.Token
		m.profile = profile
		m.state = StateAuthenticated
		m.lastErr = nil
		m.armTimerLocked(ttl)
		event = &Event{Type: EventLoggedIn, Profile: profile.clone()}
	}
	m.mu.Unlock()

	if event != nil {
		m.metrics.Inc(MetricExternalSync)
		m.emit(ctx, *event)
	}
}

func (p *Profile) clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func profileFromRecord(rec *vault.Record, claims *token.Claims) *Profile {
	p := &Profile{
		ID:    rec.Profile.ID,
		Email: rec.Profile.Email,
		Name:  rec.Profile.Name,
		Role:  rec.Profile.Role,
	}
	// The token is authoritative for identity; the stored profile only adds
	// display fields the claims may lack.
	if claims.Subject != "" {
		p.ID = claims.Subject
	}
	if claims.Email != "" {
		p.Email = claims.Email
	}
	if claims.Name != "" {
		p.Name = claims.Name
	}
	if claims.Role != "" {
		p.Role = claims.Role
	}
	return p
}
