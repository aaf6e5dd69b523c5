package config

import "time"

// Config holds runtime settings for the Arcana CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the sync backend, e.g. http://127.0.0.1:8080.
//   - DatabasePath: path of the local SQLite database file.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerBaseURL       string
	DatabasePath        string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "arcana.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
