// Package config loads oceanboard settings from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// REST backend
	APIURL        string
	ClientTimeout time.Duration
	FetchTimeout  time.Duration

	// Circuit breaker around the REST transport
	BreakerFailures uint32
	BreakerCooldown time.Duration

	// Local state
	StateFile string
	ExportDir string

	// Filtering and synthesis
	RangePolicy string
	Seed        uint64

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Development backend
	DevServerPort     string
	DevServerDB       string
	DevServerFailRate float64
	JWTSecret         string
}

// Load reads configuration from environment variables.
func Load() Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".oceanboard")

	return Config{
		APIURL:        strings.TrimRight(getEnv("OCEANBOARD_API_URL", "http://localhost:8000"), "/"),
		ClientTimeout: getDuration("OCEANBOARD_CLIENT_TIMEOUT", 30*time.Second),
		FetchTimeout:  getDuration("OCEANBOARD_FETCH_TIMEOUT", 10*time.Second),

		BreakerFailures: uint32(getInt("OCEANBOARD_BREAKER_FAILURES", 3)),
		BreakerCooldown: getDuration("OCEANBOARD_BREAKER_COOLDOWN", 30*time.Second),

		StateFile: getEnv("OCEANBOARD_STATE_FILE", filepath.Join(stateDir, "state.yaml")),
		ExportDir: getEnv("OCEANBOARD_EXPORT_DIR", "."),

		RangePolicy: getEnv("OCEANBOARD_RANGE_POLICY", "empty"),
		Seed:        uint64(getInt("OCEANBOARD_SEED", 0)),

		LogFile:  getEnv("OCEANBOARD_LOG_FILE", filepath.Join(os.TempDir(), "oceanboard.log")),
		LogLevel: parseLogLevel(getEnv("OCEANBOARD_LOG_LEVEL", "INFO")),

		DevServerPort:     getEnv("OCEANBOARD_DEVSERVER_PORT", "8000"),
		DevServerDB:       getEnv("OCEANBOARD_DEVSERVER_DB", filepath.Join(stateDir, "devserver.db")),
		DevServerFailRate: getFloat("OCEANBOARD_DEVSERVER_FAIL_RATE", 0),
		JWTSecret:         getEnv("OCEANBOARD_JWT_SECRET", "oceanboard-dev-secret"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			return n
		}
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
