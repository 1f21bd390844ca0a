package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "db", "-as", "access", "-rs", "refresh",
				"-t", "10m", "-r", "3d", "-sb", "redis", "-ra", "cache:6379", "-rp", "pw", "-rdb", "1", "-l", "zap",
			},
			expected: &Config{
				EndpointAddrHTTP:             "127.0.0.1:9090",
				DatabaseDSN:                  "db",
				AccessTokenSecret:            "access",
				RefreshTokenSecret:           "refresh",
				AccessTokenValidityDuration:  10 * time.Minute,
				RefreshTokenValidityDuration: 72 * time.Hour,
				SessionBackend:               "redis",
				RedisAddr:                    "cache:6379",
				RedisPassword:                "pw",
				RedisDB:                      1,
				LogBackend:                   "zap",
			},
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-t", "900"},
			expected: &Config{AccessTokenValidityDuration: 900 * time.Second},
		},
		{
			name:        "bad duration",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setArgs(t, tt.args...)

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
