package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/shopdash/internal/flagx"
	"github.com/dmitrijs2005/shopdash/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-valued fields mean "not set" and keep the earlier value.
type JsonConfig struct {
	BaseURL        string         `json:"base_url"`
	StoragePath    string         `json:"storage_path"`
	StorageKey     string         `json:"storage_key"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LoginPath      string         `json:"login_path"`
	PhoneRegion    string         `json:"phone_region"`
	LogLevel       string         `json:"log_level"`
	VerifyOnBoot   *bool          `json:"verify_on_boot"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read and unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&cfg.BaseURL, jc.BaseURL)
	overlay(&cfg.StoragePath, jc.StoragePath)
	overlay(&cfg.StorageKey, jc.StorageKey)
	overlay(&cfg.LoginPath, jc.LoginPath)
	overlay(&cfg.PhoneRegion, jc.PhoneRegion)
	overlay(&cfg.LogLevel, jc.LogLevel)

	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.VerifyOnBoot != nil {
		cfg.VerifyOnBoot = *jc.VerifyOnBoot
	}
}
