// Package config loads process configuration from environment variables,
// following the env-var-shaped style used throughout the server.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds every tunable of the write-path and backpressure stack.
type Config struct {
	AppPort     string
	DataDir     string
	LogLevel    string
	Development bool

	ConcurrencyAPI  int
	ConcurrencySync int
	ConcurrencyFS   int

	RateLimitRPS     float64
	RateLimitBurst   int
	RateLimitIdleTTL time.Duration

	BreakerThreshold int
	BreakerWindow    time.Duration
	BreakerCooldown  time.Duration

	RetryTimes     int
	RetryBaseDelay time.Duration
	RetryJitterMax time.Duration

	LoadShedQueueMax int

	IdempotencyTTL   time.Duration
	IdempotencySweep time.Duration

	SyncInterval time.Duration
}

// Load reads Config from the environment, applying the teacher's
// getEnv/getEnvInt/getEnvDuration helper defaults.
func Load() Config {
	return Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DataDir:     getEnv("DATA_DIR", "./data"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",

		ConcurrencyAPI:  getEnvInt("CONCURRENCY_API", 16),
		ConcurrencySync: getEnvInt("CONCURRENCY_SYNC", 4),
		ConcurrencyFS:   getEnvInt("CONCURRENCY_FILESYSTEM", 8),

		RateLimitRPS:     float64(getEnvInt("RATE_LIMIT_RPS", 10)),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitIdleTTL: getEnvDuration("RATE_LIMIT_IDLE_TTL", 10*time.Minute),

		BreakerThreshold: getEnvInt("BREAKER_THRESHOLD", 5),
		BreakerWindow:    getEnvDuration("BREAKER_WINDOW", 10*time.Second),
		BreakerCooldown:  getEnvMillis("BREAKER_COOLDOWN_MS", 5000),

		RetryTimes:     getEnvInt("RETRY_TIMES", 3),
		RetryBaseDelay: getEnvMillis("RETRY_BASE_MS", 50),
		RetryJitterMax: getEnvMillis("RETRY_JITTER_MS", 25),

		LoadShedQueueMax: getEnvInt("LOAD_SHED_QUEUE_MAX", 150),

		IdempotencyTTL:   getEnvMillis("IDEMP_TTL_MS", 600000),
		IdempotencySweep: getEnvDuration("IDEMP_SWEEP_INTERVAL", time.Minute),

		SyncInterval: getEnvMillis("SYNC_INTERVAL_MS", 30000),
	}
}

// BulkheadQueues returns the (limit, queueSize) pairs for api/sync/filesystem, per spec.
func (c Config) BulkheadQueues() (api, sync, fs [2]int) {
	return [2]int{c.ConcurrencyAPI, 100}, [2]int{c.ConcurrencySync, 50}, [2]int{c.ConcurrencyFS, 200}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMillis reads a "_MS"-suffixed env var as a bare millisecond integer,
// distinct from getEnvDuration's Go duration-string syntax.
func getEnvMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}
