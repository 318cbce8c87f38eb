package vault

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/digistarclub/adminsession/internal"
	"github.com/fsnotify/fsnotify"
)

// FileStore keeps the session in a single JSON file under stateDir, named
// after the device fingerprint. Writes are atomic (temp file + rename) so a
// concurrent reader never sees a half-written vault.
type FileStore struct {
	dir         string
	path        string
	fingerprint string
	key         []byte

	mu sync.Mutex
}

type fileEnvelope struct {
	Fingerprint string `json:"fingerprint"`
	Profile     string `json:"profile"`
	Token       string `json:"token"`
}

// NewFileStore derives the fingerprint material for stateDir and returns a
// store writing to stateDir/session-<fingerprint>.json.
func NewFileStore(stateDir string) (*FileStore, error) {
	fingerprint, key, err := internal.Material(stateDir)
	if err != nil {
		return nil, err
	}

	return &FileStore{
		dir:         stateDir,
		path:        filepath.Join(stateDir, "session-"+fingerprint+".json"),
		fingerprint: fingerprint,
		key:         key,
	}, nil
}

// Path returns the vault file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the record. The ttl is ignored; file vaults expire through
// the token's own expiry claim.
func (s *FileStore) Save(ctx context.Context, rec *Record, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	profileJSON, err := json.Marshal(rec.Profile)
	if err != nil {
		return err
	}

	env := fileEnvelope{
		Fingerprint: s.fingerprint,
		Profile:     internal.Seal(profileJSON, s.key),
		Token:       internal.Seal([]byte(rec.Token), s.key),
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads and unseals the record.
func (s *FileStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, ErrUnavailable
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrCorrupt
	}
	if env.Fingerprint != s.fingerprint {
		// Vault written by a different device identity; unusable.
		return nil, ErrCorrupt
	}

	tokenBytes, err := internal.Open(env.Token, s.key)
	if err != nil {
		return nil, ErrCorrupt
	}
	profileJSON, err := internal.Open(env.Profile, s.key)
	if err != nil {
		return nil, ErrCorrupt
	}

	rec := &Record{Token: string(tokenBytes)}
	if err := json.Unmarshal(profileJSON, &rec.Profile); err != nil {
		return nil, ErrCorrupt
	}
	return rec, nil
}

// Clear removes the vault file. Missing files are fine.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Watch signals whenever the vault file changes on disk, including changes
// made by other processes sharing the same state directory. The channel is
// closed when ctx is cancelled or the underlying watcher fails.
func (s *FileStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: atomic renames replace the inode.
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()
		for {
			select {
			case event, open := <-watcher.Events:
				if !open {
					return
				}
				if event.Name != s.path {
					continue
				}
				if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
					// A signal is already pending; coalesce.
				}
			case _, open := <-watcher.Errors:
				if !open {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return changes, nil
}
