// Package config loads runtime configuration for the ShopDash client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment: SHOPDASH_BASE_URL, SHOPDASH_STORAGE_PATH, SHOPDASH_LOG_LEVEL.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the ShopDash API
//	-d string   path of the local session database
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "10s" or integer
// nanoseconds:
//
//	{
//	  "base_url": "https://api.shopdash.example",
//	  "storage_path": "/var/lib/shopdash/client.db",
//	  "storage_key": "shopdash.auth",
//	  "request_timeout": "10s",
//	  "login_path": "/login",
//	  "phone_region": "LV",
//	  "log_level": "debug",
//	  "verify_on_boot": true
//	}
package config
