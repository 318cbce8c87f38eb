package adminsession

import (
	"context"
	"fmt"
	"log"

	"github.com/digistarclub/adminsession/token"
	"github.com/digistarclub/adminsession/vault"
)

// Login exchanges credentials for a session. On success the token is
// persisted obfuscated, the auto-logout timer is (re)armed for the token's
// remaining lifetime, and [EventLoggedIn] is broadcast with the profile.
//
// Failures leave the session exactly as it was and return an error wrapping
// [ErrLoginFailed]; [UserMessage] extracts the message to show the caller.
// Overlapping calls are coalesced: a Login issued while another is in flight
// receives the in-flight call's result instead of firing a second exchange.
func (m *Manager) Login(ctx context.Context, email, password string) (*Profile, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}

	v, err, _ := m.flight.Do("login", func() (interface{}, error) {
		return m.loginOnce(ctx, email, password)
	})
	if err != nil {
		return nil, err
	}
	profile, ok := v.(*Profile)
	if !ok {
		return nil, ErrLoginFailed
	}
	return profile, nil
}

func (m *Manager) loginOnce(ctx context.Context, email, password string) (*Profile, error) {
	accessToken, err := m.transport.Login(ctx, email, password)
	if err != nil {
		return nil, m.loginFailed(fmt.Errorf("%w: %w", ErrLoginFailed, err))
	}
	if accessToken == "" {
		return nil, m.loginFailed(fmt.Errorf("%w: %w", ErrLoginFailed, ErrNoAccessToken))
	}

	claims, err := token.Decode(accessToken)
	if err != nil {
		return nil, m.loginFailed(fmt.Errorf("%w: %w", ErrLoginFailed, err))
	}

	ttl := m.effectiveTTL(claims)
	if ttl <= 0 {
		return nil, m.loginFailed(fmt.Errorf("%w: access token already expired", ErrLoginFailed))
	}

	profile := &Profile{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	rec := &vault.Record{
		Token: accessToken,
		Profile: vault.Profile{
			ID:    profile.ID,
			Email: profile.Email,
			Name:  profile.Name,
			Role:  profile.Role,
		},
	}
	// Persistence is best-effort: a vault write failure costs the restored
	// session on next boot, not this login.
	if err := m.vault.Save(ctx, rec, ttl); err != nil {
		log.Print("adminsession: vault save failed")
	}
	m.token = accessToken
	m.profile = profile
	m.lastErr = nil
	m.state = StateAuthenticated
	m.armTimerLocked(ttl)
	m.mu.Unlock()

	m.metrics.Inc(MetricLoginSuccess)
	m.emit(ctx, Event{Type: EventLoggedIn, Profile: profile.clone()})

	return profile.clone(), nil
}

func (m *Manager) loginFailed(err error) error {
	m.metrics.Inc(MetricLoginFailure)
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	return err
}

// Logout invalidates the server-side session best-effort and always tears
// down locally: vault cleared (defensively even when already anonymous),
// timer cancelled, [EventLoggedOut] broadcast, navigation to the entry route
// requested. Safe to call in any state; never returns a remote error.
func (m *Manager) Logout(ctx context.Context) error {
	if m.isClosed() {
		return ErrClosed
	}

	m.mu.Lock()
	accessToken := m.token
	m.mu.Unlock()

	if accessToken != "" {
		if err := m.transport.Logout(ctx, accessToken); err != nil {
			log.Print("adminsession: remote logout failed")
			m.metrics.Inc(MetricRemoteLogoutFailure)
		}
	}

	m.mu.Lock()
	wasAuthenticated := m.state == StateAuthenticated
	m.clearVaultLocked(ctx)
	m.stopTimerLocked()
	m.token = ""
	m.profile = nil
	m.lastErr = nil
	if m.state != StateUninitialized {
		m.state = StateAnonymous
	}
	m.mu.Unlock()

	m.metrics.Inc(MetricLogout)
	if wasAuthenticated {
		m.emit(ctx, Event{Type: EventLoggedOut})
	}
	m.nav.Navigate(m.config.Routes.Entry)

	return nil
}

// HasRole reports whether the authenticated profile's role matches any of
// the given roles, case-insensitively. Always false when anonymous and for
// an empty role list.
func (m *Manager) HasRole(roles ...string) bool {
	m.mu.Lock()
	profile := m.profile
	state := m.state
	m.mu.Unlock()

	if state != StateAuthenticated {
		return false
	}
	return profile.HasRole(roles...)
}
