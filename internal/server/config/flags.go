package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/staffkeeper/internal/flagx"
	"github.com/dmitrijs2005/staffkeeper/internal/timex"
)

// parseFlags overlays command-line flags:
//
//	-a string    HTTP bind address (e.g. ":8080")
//	-d string    PostgreSQL DSN
//	-as string   access token secret
//	-rs string   refresh token secret
//	-t duration  access token validity ("15m", "900", "1d")
//	-r duration  refresh token validity
//	-sb string   session backend: postgres, redis or memory
//	-ra string   redis address
//	-rp string   redis password
//	-rdb int     redis database
//	-l string    log backend: slog or zap
//
// Unknown arguments are dropped by flagx.FilterArgs first. It panics on a
// malformed value.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-as", "-rs", "-t", "-r", "-sb", "-ra", "-rp", "-rdb", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "as", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret")
	fs.Func("t", "access token validity", durationFlag(&config.AccessTokenValidityDuration))
	fs.Func("r", "refresh token validity", durationFlag(&config.RefreshTokenValidityDuration))
	fs.StringVar(&config.SessionBackend, "sb", config.SessionBackend, "session backend (postgres|redis|memory)")
	fs.StringVar(&config.RedisAddr, "ra", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "rp", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "rdb", config.RedisDB, "redis database")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog|zap)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

func durationFlag(dst *time.Duration) func(string) error {
	return func(s string) error {
		d, err := timex.ParseDuration(s)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
