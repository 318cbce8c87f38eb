package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned by [Decode] for any token whose claims cannot be
// extracted. Callers treat it as "no session".
var ErrMalformed = errors.New("malformed access token")

// Claims are the locally relevant claims of an access token. The signature
// is NOT verified; only the payload part is decoded.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	Role      string
	ExpiresAt time.Time
}

// Decode extracts claims from a compact three-part token. The expiry claim
// and subject are mandatory; email, name, and role default to empty when
// absent. Any structural problem yields [ErrMalformed].
func Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMalformed
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, ErrMalformed
	}

	mapped, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	exp, err := mapped.GetExpirationTime()
	if err != nil || exp == nil || exp.Time.IsZero() {
		return nil, ErrMalformed
	}

	sub, err := mapped.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrMalformed
	}

	return &Claims{
		Subject:   sub,
		Email:     stringClaim(mapped, "email"),
		Name:      stringClaim(mapped, "name"),
		Role:      stringClaim(mapped, "role"),
		ExpiresAt: exp.Time,
	}, nil
}

// Expired reports whether the token's expiry is at or before now.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil {
		return true
	}
	return !c.ExpiresAt.After(now)
}

// TTL is the remaining lifetime relative to now; zero or negative when
// expired.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

func stringClaim(m jwt.MapClaims, key string) string {
	v, _ := m[key].(string)
	return v
}
