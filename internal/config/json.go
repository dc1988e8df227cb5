package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/paykeeper/internal/flagx"
	"github.com/dmitrijs2005/paykeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "300s" or as integer nanoseconds. After parsing, non-zero
// values are copied into the runtime Config.
type JsonConfig struct {
	APIBaseURL           string         `json:"api_base_url"`
	CredentialsPath      string         `json:"credentials_path"`
	HistoryDBPath        string         `json:"history_db_path"`
	DataDir              string         `json:"data_dir"`
	RequestTimeout       timex.Duration `json:"request_timeout"`
	MinDepositAmount     int64          `json:"min_deposit_amount"`
	DefaultPaymentMethod string         `json:"default_payment_method"`
	PollInterval         timex.Duration `json:"poll_interval"`
	TrackTimeout         timex.Duration `json:"track_timeout"`
	KeepAliveInterval    timex.Duration `json:"keep_alive_interval"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags via flagx.JsonConfigFlags;
// when absent, nothing is loaded. Read or unmarshal errors panic (startup
// misconfiguration should be loud). Only fields set in the JSON override the
// defaults.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
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

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.CredentialsPath != "" {
		cfg.CredentialsPath = jc.CredentialsPath
	}
	if jc.HistoryDBPath != "" {
		cfg.HistoryDBPath = jc.HistoryDBPath
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.MinDepositAmount != 0 {
		cfg.MinDepositAmount = jc.MinDepositAmount
	}
	if jc.DefaultPaymentMethod != "" {
		cfg.DefaultPaymentMethod = jc.DefaultPaymentMethod
	}
	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.TrackTimeout.Duration != 0 {
		cfg.TrackTimeout = jc.TrackTimeout.Duration
	}
	if jc.KeepAliveInterval.Duration != 0 {
		cfg.KeepAliveInterval = jc.KeepAliveInterval.Duration
	}
}
