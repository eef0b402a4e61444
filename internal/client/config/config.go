package config

import (
	"time"

	"github.com/dmitrijs2005/shopdash/internal/common"
)

// Config holds runtime settings for the ShopDash client.
//
// Fields:
//   - BaseURL: scheme://host[:port] of the ShopDash REST API.
//   - StoragePath: SQLite file holding the persisted session.
//   - StorageKey: namespaced key the session snapshot is stored under.
//   - RequestTimeout: upper bound for a single API call.
//   - LoginPath: location of the login boundary.
//   - PhoneRegion: region used to parse mobile numbers without a prefix.
//   - LogLevel: debug, info, warn or error.
//   - VerifyOnBoot: check a rehydrated session with the server at startup.
type Config struct {
	BaseURL        string
	StoragePath    string
	StorageKey     string
	RequestTimeout time.Duration
	LoginPath      string
	PhoneRegion    string
	LogLevel       string
	VerifyOnBoot   bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://localhost:8000"
	c.StoragePath = "shopdash.db"
	c.StorageKey = common.DefaultStorageKey
	c.RequestTimeout = 10 * time.Second
	c.LoginPath = "/login"
	c.PhoneRegion = "US"
	c.LogLevel = "info"
	c.VerifyOnBoot = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
