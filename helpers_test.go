package adminsession

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/digistarclub/adminsession/vault"
)

// fakeClock drives expiry deterministically. Advance fires due timers
// synchronously on the calling goroutine.
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	timers    []*fakeTimer
	lastDelay time.Duration
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	c.lastDelay = d
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.when.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// stubTransport answers logins from canned fields and counts calls.
type stubTransport struct {
	mu          sync.Mutex
	token       string
	loginErr    error
	logoutErr   error
	loginCalls  int
	logoutCalls int
	gate        chan struct{} // when set, Login blocks until closed
}

func (s *stubTransport) Login(context.Context, string, string) (string, error) {
	s.mu.Lock()
	s.loginCalls++
	gate := s.gate
	token, err := s.token, s.loginErr
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return token, err
}

func (s *stubTransport) Logout(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutCalls++
	return s.logoutErr
}

func (s *stubTransport) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *stubTransport) calls() (login, logout int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls, s.logoutCalls
}

// navRecorder captures navigation requests.
type navRecorder struct {
	mu      sync.Mutex
	targets []string
}

func (n *navRecorder) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *navRecorder) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

// makeToken builds an unsigned three-part token; only the claims part is
// ever decoded by the client.
func makeToken(t *testing.T, sub, email, name, role string, exp time.Time) string {
	t.Helper()

	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	claims := map[string]interface{}{
		"sub":  sub,
		"exp":  exp.Unix(),
		"role": role,
	}
	if email != "" {
		claims["email"] = email
	}
	if name != "" {
		claims["name"] = name
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}

	enc := base64.RawURLEncoding
	return enc.EncodeToString(headerJSON) + "." + enc.EncodeToString(claimsJSON) + "." + enc.EncodeToString([]byte("sig"))
}

type fixture struct {
	mgr       *Manager
	clock     *fakeClock
	transport *stubTransport
	store     vault.Store
	sink      *ChannelSink
	nav       *navRecorder
}

type fixtureOption func(*Builder)

func newFixture(t *testing.T, store vault.Store, transport *stubTransport, opts ...fixtureOption) *fixture {
	t.Helper()

	if store == nil {
		store = vault.NewMemory()
	}
	if transport == nil {
		transport = &stubTransport{}
	}

	clock := newFakeClock()
	sink := NewChannelSink(32)
	nav := &navRecorder{}

	builder := New().
		WithTransport(transport).
		WithVault(store).
		WithClock(clock).
		WithEventSink(sink).
		WithNavigator(nav)
	for _, opt := range opts {
		opt(builder)
	}

	mgr, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(mgr.Close)

	return &fixture{
		mgr:       mgr,
		clock:     clock,
		transport: transport,
		store:     store,
		sink:      sink,
		nav:       nav,
	}
}

func waitEvent(t *testing.T, sink *ChannelSink, want EventType) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %q", want)
			return Event{}
		}
	}
}

func seedVault(t *testing.T, store vault.Store, token string, profile vault.Profile) {
	t.Helper()

	err := store.Save(context.Background(), &vault.Record{Token: token, Profile: profile}, time.Hour)
	if err != nil {
		t.Fatalf("seed vault: %v", err)
	}
}
