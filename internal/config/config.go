package config

import "time"

// Config holds runtime settings for paykeeper.
//
// Units: all intervals are time.Duration values; MinDepositAmount is in the
// remote currency's smallest displayed unit (whole rupiah).
type Config struct {
	APIBaseURL           string
	CredentialsPath      string
	HistoryDBPath        string
	DataDir              string
	RequestTimeout       time.Duration
	MinDepositAmount     int64
	DefaultPaymentMethod string
	PollInterval         time.Duration
	TrackTimeout         time.Duration
	KeepAliveInterval    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://pay.example.com"
	c.CredentialsPath = "config/credentials.json"
	c.HistoryDBPath = "history.db"
	c.DataDir = "data"
	c.RequestTimeout = 60 * time.Second
	c.MinDepositAmount = 10000
	c.DefaultPaymentMethod = "P2M"
	c.PollInterval = 5 * time.Second
	c.TrackTimeout = 300 * time.Second
	c.KeepAliveInterval = 300 * time.Second
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
