package adminsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/digistarclub/adminsession/rest"
	"github.com/digistarclub/adminsession/vault"
)

func TestLoginWithoutAccessTokenRejects(t *testing.T) {
	transport := &stubTransport{token: ""}
	f := newFixture(t, nil, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	_, err := f.mgr.Login(context.Background(), "a@x.com", "secret")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("err = %v, want ErrLoginFailed", err)
	}
	if !errors.Is(err, ErrNoAccessToken) {
		t.Fatalf("err = %v, want wrapped ErrNoAccessToken", err)
	}
	if got := f.mgr.State(); got != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got)
	}
	if snap := f.mgr.Snapshot(); snap.LastError == nil {
		t.Fatal("LastError not recorded")
	}
}

func TestLoginRemoteFailureSurfacesUserMessage(t *testing.T) {
	transport := &stubTransport{
		loginErr: &rest.APIError{StatusCode: 401, Message: "email or password is incorrect"},
	}
	f := newFixture(t, nil, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	_, err := f.mgr.Login(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("err = %v, want ErrLoginFailed", err)
	}
	if got := UserMessage(err); got != "email or password is incorrect" {
		t.Fatalf("UserMessage = %q", got)
	}
}

func TestLoginGenericFallbackMessage(t *testing.T) {
	transport := &stubTransport{loginErr: errors.New("connection refused")}
	f := newFixture(t, nil, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	_, err := f.mgr.Login(context.Background(), "a@x.com", "secret")
	if got := UserMessage(err); got != genericLoginMessage {
		t.Fatalf("UserMessage = %q, want generic fallback", got)
	}
}

func TestLoginSuccess(t *testing.T) {
	store := vault.NewMemory()
	transport := &stubTransport{}
	f := newFixture(t, store, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	transport.setToken(makeToken(t, "adm-1", "a@x.com", "Alice", RoleAdministrator, f.clock.Now().Add(time.Hour)))
	profile, err := f.mgr.Login(context.Background(), "a@x.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if profile.ID != "adm-1" || profile.Role != RoleAdministrator || profile.Email != "a@x.com" {
		t.Fatalf("profile = %+v", profile)
	}

	ev := waitEvent(t, f.sink, EventLoggedIn)
	if ev.Profile == nil || ev.Profile.ID != "adm-1" || ev.Profile.Role != RoleAdministrator {
		t.Fatalf("logged-in event profile = %+v", ev.Profile)
	}

	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("vault load after login: %v", err)
	}
	if rec.Profile.ID != "adm-1" {
		t.Fatalf("persisted profile = %+v", rec.Profile)
	}
	if !f.mgr.HasRole(RoleAdministrator) {
		t.Fatal("HasRole(administrator) = false after admin login")
	}
	if got := f.mgr.MetricsSnapshot().Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("login success metric = %d, want 1", got)
	}
}

func TestLoginExpiredTokenRejected(t *testing.T) {
	transport := &stubTransport{}
	f := newFixture(t, nil, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	transport.setToken(makeToken(t, "u1", "", "", RoleMember, f.clock.Now().Add(-time.Second)))
	_, err := f.mgr.Login(context.Background(), "a@x.com", "secret")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("err = %v, want ErrLoginFailed", err)
	}
	if got := f.mgr.State(); got != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got)
	}
}

func TestOverlappingLoginsShareOneFlight(t *testing.T) {
	gate := make(chan struct{})
	transport := &stubTransport{gate: gate}
	f := newFixture(t, nil, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	transport.setToken(makeToken(t, "u1", "", "", RoleAdministrator, f.clock.Now().Add(time.Hour)))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.mgr.Login(context.Background(), "a@x.com", "secret")
		}(i)
	}

	// Both goroutines are either blocked in the shared flight or waiting on
	// its result before the gate opens.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("login %d failed: %v", i, err)
		}
	}
	if logins, _ := f.transport.calls(); logins != 1 {
		t.Fatalf("transport login calls = %d, want 1 shared flight", logins)
	}
}

func TestLogoutAlwaysClearsLocally(t *testing.T) {
	store := vault.NewMemory()
	transport := &stubTransport{logoutErr: errors.New("server on fire")}
	f := newFixture(t, store, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	transport.setToken(makeToken(t, "u1", "", "", RoleMember, f.clock.Now().Add(time.Hour)))
	if _, err := f.mgr.Login(context.Background(), "a@x.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := f.mgr.Logout(context.Background()); err != nil {
		t.Fatalf("Logout must not surface remote failure, got %v", err)
	}

	if got := f.mgr.State(); got != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, vault.ErrNotFound) {
		t.Fatalf("vault not cleared: %v", err)
	}
	waitEvent(t, f.sink, EventLoggedOut)
	if navs := f.nav.all(); len(navs) == 0 || navs[len(navs)-1] != "/" {
		t.Fatalf("logout must request entry route, got %v", navs)
	}
	if got := f.mgr.MetricsSnapshot().Counters[MetricRemoteLogoutFailure]; got != 1 {
		t.Fatalf("remote logout failure metric = %d, want 1", got)
	}
	if got := f.clock.pending(); got != 0 {
		t.Fatalf("expiry timer survived logout: %d pending", got)
	}
}

func TestLogoutWhenAlreadyAnonymous(t *testing.T) {
	f := newFixture(t, nil, nil)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := f.mgr.Logout(context.Background()); err != nil {
		t.Fatalf("Logout when anonymous = %v, want nil", err)
	}
	if _, logouts := f.transport.calls(); logouts != 0 {
		t.Fatalf("no token held, remote logout calls = %d, want 0", logouts)
	}
	if got := f.mgr.State(); got != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got)
	}
}

func TestHasRole(t *testing.T) {
	transport := &stubTransport{}
	f := newFixture(t, nil, transport)

	if err := f.mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if f.mgr.HasRole(RoleAdministrator) {
		t.Fatal("HasRole true with no user set")
	}

	transport.setToken(makeToken(t, "u1", "", "", "Administrator", f.clock.Now().Add(time.Hour)))
	if _, err := f.mgr.Login(context.Background(), "a@x.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{"exact", []string{"Administrator"}, true},
		{"case insensitive", []string{"administrator"}, true},
		{"one of set", []string{RoleSuperAdministrator, "ADMINISTRATOR"}, true},
		{"mismatch", []string{RoleMember}, false},
		{"empty set", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.mgr.HasRole(tc.roles...); got != tc.want {
				t.Fatalf("HasRole(%v) = %v, want %v", tc.roles, got, tc.want)
			}
		})
	}
}
