package config

import "time"

// Config holds runtime settings for the HiveKeep client.
//
// Fields:
//   - ServerBaseURL: base URL of the backend REST API.
//   - DatabasePath: sqlite file holding snapshots and metadata.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - ProbeTimeout: upper bound on a single reachability probe.
//   - CacheTTL: how long a fetched collection counts as fresh in the query cache.
type Config struct {
	ServerBaseURL       string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	ProbeTimeout        time.Duration
	CacheTTL            time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "hivekeep.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.ProbeTimeout = 3 * time.Second
	c.CacheTTL = 30 * time.Second
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
