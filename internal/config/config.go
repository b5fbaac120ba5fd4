package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort           string
	MySQLDSN           string
	RedisAddr          string
	RedisPoolSize      int
	WorkerCount        int
	EventQueueSize     int
	StockRetries       int
	StockRetryWait     time.Duration
	LockTTL            time.Duration
	ExcludedCategories []string
	LogJSON            bool
}

func Default() Config {
	return Config{
		HTTPPort:           ":8080",
		MySQLDSN:           "root:root@tcp(localhost:3306)/baraja?parseTime=true",
		RedisAddr:          "localhost:6379",
		RedisPoolSize:      100,
		WorkerCount:        10,
		EventQueueSize:     10000,
		StockRetries:       3,
		StockRetryWait:     50 * time.Millisecond,
		LockTTL:            10 * time.Second,
		ExcludedCategories: []string{"bazar"},
		LogJSON:            true,
	}
}

// FromEnv overlays BARAJA_-prefixed environment variables on the defaults.
func FromEnv() Config {
	c := Default()
	if v := os.Getenv("BARAJA_HTTP_PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("BARAJA_MYSQL_DSN"); v != "" {
		c.MySQLDSN = v
	}
	if v := os.Getenv("BARAJA_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v, ok := envInt("BARAJA_REDIS_POOL_SIZE"); ok {
		c.RedisPoolSize = v
	}
	if v, ok := envInt("BARAJA_WORKER_COUNT"); ok {
		c.WorkerCount = v
	}
	if v, ok := envInt("BARAJA_EVENT_QUEUE_SIZE"); ok {
		c.EventQueueSize = v
	}
	if v, ok := envInt("BARAJA_STOCK_RETRIES"); ok {
		c.StockRetries = v
	}
	if v, ok := envInt("BARAJA_STOCK_RETRY_WAIT_MS"); ok {
		c.StockRetryWait = time.Duration(v) * time.Millisecond
	}
	if v, ok := envInt("BARAJA_LOCK_TTL_MS"); ok {
		c.LockTTL = time.Duration(v) * time.Millisecond
	}
	if v := os.Getenv("BARAJA_TAX_EXCLUDED_CATEGORY"); v != "" {
		c.ExcludedCategories = []string{v}
	}
	if v := os.Getenv("BARAJA_LOG_JSON"); v != "" {
		switch v {
		case "1", "true", "TRUE":
			c.LogJSON = true
		case "0", "false", "FALSE":
			c.LogJSON = false
		}
	}
	return c
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
