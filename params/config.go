// Package params loads the service configuration: a connection.json file in
// the original back-office shape, overridden by environment variables.
// Priority: ENV > .env file > connection.json > defaults.
package params

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	RedisURL           string `json:"redis_url"`
	RedisPassword      string `json:"redis_password"`
	ServerPort         int    `json:"server_port"`
	SocketTimeoutMs    int    `json:"socket_timeout_ms"`
	RedisPoolSize      int    `json:"redis_pool_size"`
	RedisWaitTimeoutMs int    `json:"redis_wait_timeout_ms"`

	// StoreBackend selects the document store: "redis" (default) or the
	// embedded "pebble" backend for deployments without a Redis stack.
	StoreBackend string `json:"store_backend"`
	PebblePath   string `json:"pebble_path"`

	RingCapacityBytes int    `json:"ring_capacity_bytes"`
	LogFile           string `json:"log_file"`
}

func Default() Config {
	return Config{
		RedisURL:           "127.0.0.1:6379",
		ServerPort:         9000,
		SocketTimeoutMs:    5000,
		RedisPoolSize:      4,
		RedisWaitTimeoutMs: 3000,
		StoreBackend:       "redis",
		PebblePath:         "data/finquota",
		RingCapacityBytes:  16 * 1024 * 1024,
		LogFile:            "data/finquota.log",
	}
}

// Load reads path (JSON) if it exists and applies environment overrides.
// A missing or unreadable config file is not fatal; defaults apply.
// The boolean result reports whether the file was read and parsed.
func Load(path string) (Config, bool) {
	cfg := Default()

	loaded := false
	if raw, err := os.ReadFile(path); err == nil {
		if json.Unmarshal(raw, &cfg) == nil {
			loaded = true
		}
	}

	// .env is optional and never fails the load.
	_ = godotenv.Load()

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = p
		}
	}
	if v := os.Getenv("SOCKET_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.SocketTimeoutMs = ms
		}
	}
	if v := os.Getenv("REDIS_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisPoolSize = n
		}
	}
	if v := os.Getenv("REDIS_WAIT_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.RedisWaitTimeoutMs = ms
		}
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("PEBBLE_PATH"); v != "" {
		cfg.PebblePath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	return cfg, loaded
}

func (c Config) SocketTimeout() time.Duration {
	return time.Duration(c.SocketTimeoutMs) * time.Millisecond
}

func (c Config) RedisWaitTimeout() time.Duration {
	return time.Duration(c.RedisWaitTimeoutMs) * time.Millisecond
}
