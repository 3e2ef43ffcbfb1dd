package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OCEANBOARD_API_URL", "")
	t.Setenv("OCEANBOARD_FETCH_TIMEOUT", "")
	t.Setenv("OCEANBOARD_RANGE_POLICY", "")

	cfg := Load()
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "empty", cfg.RangePolicy)
	assert.Equal(t, uint32(3), cfg.BreakerFailures)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OCEANBOARD_API_URL", "http://ocean.example:9000/")
	t.Setenv("OCEANBOARD_FETCH_TIMEOUT", "250ms")
	t.Setenv("OCEANBOARD_SEED", "42")
	t.Setenv("OCEANBOARD_DEVSERVER_FAIL_RATE", "0.5")
	t.Setenv("OCEANBOARD_CLIENT_TIMEOUT", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "http://ocean.example:9000", cfg.APIURL, "trailing slash trimmed")
	assert.Equal(t, 250*time.Millisecond, cfg.FetchTimeout)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 0.5, cfg.DevServerFailRate)
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout, "invalid duration falls back to default")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}
