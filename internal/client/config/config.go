// Package config loads runtime configuration for the file exchange CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Command-line flags, which override earlier values.
package config

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerURL: base URL of the file exchange server.
//   - DatabasePath: sqlite file holding the local session state.
//   - DownloadDir: directory downloads are saved into.
type Config struct {
	ServerURL    string
	DatabasePath string
	DownloadDir  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3000"
	c.DatabasePath = "fileshare.db"
	c.DownloadDir = "downloads"
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
