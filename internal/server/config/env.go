package config

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/staffkeeper/internal/timex"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	EnvHTTPAddress        = "HTTP_ADDRESS"
	EnvDatabaseDSN        = "DATABASE_DSN"
	EnvAccessTokenSecret  = "JWT_ACCESS_TOKEN_SECRET"
	EnvRefreshTokenSecret = "JWT_REFRESH_TOKEN_SECRET"
	EnvAccessTokenTTL     = "ACCESS_TOKEN_EXPIRES_IN"
	EnvRefreshTokenTTL    = "REFRESH_TOKEN_EXPIRES_IN"
	EnvSessionBackend     = "SESSION_BACKEND"
	EnvRedisAddr          = "REDIS_ADDR"
	EnvRedisPassword      = "REDIS_PASSWORD"
	EnvRedisDB            = "REDIS_DB"
	EnvLogBackend         = "LOG_BACKEND"
)

func newEnvViper() *viper.Viper {
	v := viper.New()
	bindings := map[string]string{
		"http_address":         EnvHTTPAddress,
		"database_dsn":         EnvDatabaseDSN,
		"access_token_secret":  EnvAccessTokenSecret,
		"refresh_token_secret": EnvRefreshTokenSecret,
		"access_token_ttl":     EnvAccessTokenTTL,
		"refresh_token_ttl":    EnvRefreshTokenTTL,
		"session_backend":      EnvSessionBackend,
		"redis_addr":           EnvRedisAddr,
		"redis_password":       EnvRedisPassword,
		"redis_db":             EnvRedisDB,
		"log_backend":          EnvLogBackend,
	}
	for key, env := range bindings {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, env)
	}
	return v
}

// parseEnv overlays the environment variables that are set. Token lifetimes
// accept the same forms as timex.ParseDuration, so "900" and "7d" both work.
// It panics on a value that cannot be parsed.
func parseEnv(config *Config) {
	v := newEnvViper()

	strs := map[string]*string{
		"http_address":         &config.EndpointAddrHTTP,
		"database_dsn":         &config.DatabaseDSN,
		"access_token_secret":  &config.AccessTokenSecret,
		"refresh_token_secret": &config.RefreshTokenSecret,
		"session_backend":      &config.SessionBackend,
		"redis_addr":           &config.RedisAddr,
		"redis_password":       &config.RedisPassword,
		"log_backend":          &config.LogBackend,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	if v.IsSet("access_token_ttl") {
		d, err := timex.ParseDuration(v.GetString("access_token_ttl"))
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvAccessTokenTTL, err))
		}
		config.AccessTokenValidityDuration = d
	}
	if v.IsSet("refresh_token_ttl") {
		d, err := timex.ParseDuration(v.GetString("refresh_token_ttl"))
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvRefreshTokenTTL, err))
		}
		config.RefreshTokenValidityDuration = d
	}
	if v.IsSet("redis_db") {
		db, err := strconv.Atoi(v.GetString("redis_db"))
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvRedisDB, err))
		}
		config.RedisDB = db
	}
}
