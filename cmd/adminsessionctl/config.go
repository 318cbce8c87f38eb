package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	adminsession "github.com/digistarclub/adminsession"
	"github.com/digistarclub/adminsession/rest"
	"github.com/digistarclub/adminsession/vault"
)

// cliConfig is the YAML surface of adminsessionctl. StateDir holds the device
// id and, for the file backend, the session vault itself. Timeout is a
// duration string like "15s"; empty means the client default.
type cliConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
	Timeout    string `yaml:"timeout"`
	StateDir   string `yaml:"state_dir"`

	Vault struct {
		Backend     string `yaml:"backend"` // "file" (default) or "redis"
		RedisAddr   string `yaml:"redis_addr"`
		RedisPrefix string `yaml:"redis_prefix"`
	} `yaml:"vault"`
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adminsession"
	}
	return filepath.Join(home, ".adminsession")
}

// loadConfig reads the YAML config, tolerating a missing file so the CLI
// works against defaults out of the box.
func loadConfig() (*cliConfig, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(defaultStateDir(), "config.yaml")
	}

	cfg := &cliConfig{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && configPath == "":
		// No config and none requested: run on defaults.
	default:
		return nil, err
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = os.Getenv("DIGISTAR_API_URL")
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api_base_url not set (config %s or DIGISTAR_API_URL)", path)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}
	if cfg.Vault.Backend == "" {
		cfg.Vault.Backend = "file"
	}
	return cfg, nil
}

// apiTimeout parses the configured timeout; zero means the client default.
func (c *cliConfig) apiTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parse timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// openVault builds the configured store backend. The returned closer releases
// the Redis connection when one was opened.
func openVault(cfg *cliConfig) (vault.Store, func(), error) {
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, nil, err
	}

	switch cfg.Vault.Backend {
	case "file":
		store, err := vault.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "redis":
		if cfg.Vault.RedisAddr == "" {
			return nil, nil, fmt.Errorf("vault.redis_addr is required for the redis backend")
		}
		fingerprint, key, err := vault.Material(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.Vault.RedisAddr},
		})
		store := vault.NewRedisStore(client, cfg.Vault.RedisPrefix, fingerprint, key)
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vault backend %q", cfg.Vault.Backend)
	}
}

// buildManager assembles a Manager from the CLI config. watch enables vault
// change propagation for long-running commands.
func buildManager(cfg *cliConfig, sink adminsession.EventSink, watch bool) (*adminsession.Manager, func(), error) {
	timeout, err := cfg.apiTimeout()
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openVault(cfg)
	if err != nil {
		return nil, nil, err
	}

	mcfg := adminsession.DefaultConfig()
	mcfg.Sync.WatchVault = watch

	b := adminsession.New().
		WithConfig(mcfg).
		WithTransport(rest.NewClient(cfg.APIBaseURL, timeout)).
		WithVault(store)
	if sink != nil {
		b = b.WithEventSink(sink)
	}

	mgr, err := b.Build()
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	cleanup := func() {
		mgr.Close()
		closeStore()
	}
	return mgr, cleanup, nil
}
