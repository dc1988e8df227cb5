// Package config loads runtime configuration for paykeeper.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "300s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://pay.example.com",
//	  "credentials_path": "config/credentials.json",
//	  "poll_interval": "5s",
//	  "track_timeout": "300s",
//	  "keep_alive_interval": "300s"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
