package config

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Config holds the tunables of the synchronization pipeline. Values arrive as
// JSON from the host's initialization options; absent fields keep their
// defaults.
type Config struct {
	// ReparseIntervalMS is the coarse periodic schedule refreshing the symbol
	// table and navigation index.
	ReparseIntervalMS int `json:"reparse_interval_ms"`
	// DebounceIntervalMS is the quiet interval before highlight ranges are
	// refreshed for the symbol at the cursor.
	DebounceIntervalMS int `json:"debounce_interval_ms"`
	// Persist enables the on-disk snapshot store.
	Persist bool `json:"persist"`
}

var defaultConfig = Config{
	ReparseIntervalMS:  10000,
	DebounceIntervalMS: 250,
	Persist:            true,
}

// ReparseInterval returns the periodic schedule as a duration.
func (c Config) ReparseInterval() time.Duration {
	return time.Duration(c.ReparseIntervalMS) * time.Millisecond
}

// DebounceInterval returns the debounce quiet interval as a duration.
func (c Config) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceIntervalMS) * time.Millisecond
}

// Load overlays the fields present in v onto the defaults.
func Load(v any) (Config, error) {
	cfg := defaultConfig

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	// only fields present in src will overwrite.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	if cfg.ReparseIntervalMS <= 0 {
		cfg.ReparseIntervalMS = defaultConfig.ReparseIntervalMS
	}
	if cfg.DebounceIntervalMS <= 0 {
		cfg.DebounceIntervalMS = defaultConfig.DebounceIntervalMS
	}
	return cfg, nil
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := defaultConfig

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in defaults.
func Default() Config {
	return defaultConfig
}
