package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    base URL of the payment service
//	-f string    path to the credentials file
//	-db string   path to the order history database
//	-dir string  data directory for profile snapshots
//	-m int       minimum deposit amount
//	-p int       order poll interval in seconds
//	-t int       order tracking timeout in seconds
//	-k int       keep-alive interval in seconds
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-db", "-dir", "-m", "-p", "-t", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the payment service")
	fs.StringVar(&cfg.CredentialsPath, "f", cfg.CredentialsPath, "path to the credentials file")
	fs.StringVar(&cfg.HistoryDBPath, "db", cfg.HistoryDBPath, "path to the order history database")
	fs.StringVar(&cfg.DataDir, "dir", cfg.DataDir, "data directory for profile snapshots")
	fs.Int64Var(&cfg.MinDepositAmount, "m", cfg.MinDepositAmount, "minimum deposit amount")
	pollInterval := fs.Int("p", int(cfg.PollInterval.Seconds()), "order poll interval (in seconds)")
	trackTimeout := fs.Int("t", int(cfg.TrackTimeout.Seconds()), "order tracking timeout (in seconds)")
	keepAliveInterval := fs.Int("k", int(cfg.KeepAliveInterval.Seconds()), "keep-alive interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
	cfg.TrackTimeout = time.Duration(*trackTimeout) * time.Second
	cfg.KeepAliveInterval = time.Duration(*keepAliveInterval) * time.Second
}
