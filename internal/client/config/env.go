package config

import "os"

const (
	EnvBaseURL     = "SHOPDASH_BASE_URL"
	EnvStoragePath = "SHOPDASH_STORAGE_PATH"
	EnvLogLevel    = "SHOPDASH_LOG_LEVEL"
)

// lookupEnv is a test seam.
var lookupEnv = os.LookupEnv

// parseEnv overlays the settings that deployments usually set through the
// environment. Unset or empty variables leave cfg untouched.
func parseEnv(cfg *Config) {
	set := func(name string, dst *string) {
		if v, ok := lookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	set(EnvBaseURL, &cfg.BaseURL)
	set(EnvStoragePath, &cfg.StoragePath)
	set(EnvLogLevel, &cfg.LogLevel)
}
