package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/digistarclub/adminsession/internal"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the two session entries in Redis, keyed by the device
// fingerprint, with TTL set to the token's remaining lifetime so stale
// sessions vanish on their own. Intended for deployments where several
// processes or hosts share one vault.
type RedisStore struct {
	client      redis.UniversalClient
	prefix      string
	fingerprint string
	key         []byte
}

// NewRedisStore wraps client. prefix defaults to "adminsession" when empty;
// fingerprint and key come from [Material] of the local state directory (or
// any stable equivalent).
func NewRedisStore(client redis.UniversalClient, prefix, fingerprint string, key []byte) *RedisStore {
	if prefix == "" {
		prefix = "adminsession"
	}
	return &RedisStore{
		client:      client,
		prefix:      prefix,
		fingerprint: fingerprint,
		key:         key,
	}
}

// Material derives the fingerprint and obfuscation key for stateDir. It is
// re-exported here so callers wiring a RedisStore do not import internal.
func Material(stateDir string) (fingerprint string, key []byte, err error) {
	return internal.Material(stateDir)
}

func (s *RedisStore) tokenKey() string {
	return fmt.Sprintf("%s:%s:token", s.prefix, s.fingerprint)
}

func (s *RedisStore) profileKey() string {
	return fmt.Sprintf("%s:%s:profile", s.prefix, s.fingerprint)
}

// Save stores both entries with the given TTL in one pipeline.
func (s *RedisStore) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	profileJSON, err := json.Marshal(rec.Profile)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(), internal.Seal([]byte(rec.Token), s.key), ttl)
	pipe.Set(ctx, s.profileKey(), internal.Seal(profileJSON, s.key), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// Load fetches both entries. A missing token means no session even when a
// profile blob lingers.
func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	values, err := s.client.MGet(ctx, s.tokenKey(), s.profileKey()).Result()
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	armoredToken, ok := values[0].(string)
	if !ok || armoredToken == "" {
		return nil, ErrNotFound
	}

	tokenBytes, err := internal.Open(armoredToken, s.key)
	if err != nil {
		return nil, ErrCorrupt
	}
	rec := &Record{Token: string(tokenBytes)}

	if armoredProfile, ok := values[1].(string); ok && armoredProfile != "" {
		profileJSON, err := internal.Open(armoredProfile, s.key)
		if err != nil {
			return nil, ErrCorrupt
		}
		if err := json.Unmarshal(profileJSON, &rec.Profile); err != nil {
			return nil, ErrCorrupt
		}
	}
	return rec, nil
}

// Clear deletes both entries. Deleting absent keys is a no-op.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey(), s.profileKey()).Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}
