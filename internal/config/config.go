package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	SocketURL      string
	RequestTimeout time.Duration
	CachePath      string
	// CacheKey encrypts the persisted session token at rest. Hex, 32 bytes.
	CacheKey string
	LogLevel string
}

// Load reads .env if present, then the environment. Defaults point at a
// local devserver.
func Load() (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := Config{
		APIBaseURL:     getenv("HEARTH_API_URL", "http://localhost:8080"),
		SocketURL:      getenv("HEARTH_SOCKET_URL", "ws://localhost:8080/ws"),
		RequestTimeout: 10 * time.Second,
		CachePath:      getenv("HEARTH_CACHE_PATH", "hearth-cache.db"),
		CacheKey:       getenv("HEARTH_CACHE_KEY", ""),
		LogLevel:       getenv("HEARTH_LOG_LEVEL", "info"),
	}

	if v := os.Getenv("HEARTH_REQUEST_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return Config{}, fmt.Errorf("invalid HEARTH_REQUEST_TIMEOUT_SEC %q", v)
		}
		cfg.RequestTimeout = time.Duration(sec) * time.Second
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
