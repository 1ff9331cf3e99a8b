package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"jakangroup/catalogworker/internal/catalog"
)

// Config represents the application configuration
type Config struct {
	// Crawl targets and pagination strategies
	Targets    []catalog.Target
	Strategies []catalog.Strategy

	// Politeness delay bounds between requests
	DelayMin time.Duration
	DelayMax time.Duration

	// Rate-limit blocking
	MemcacheAddr string
	BlockTime    time.Duration

	// CSV sink; empty disables it
	OutputFile string

	// Warehouse sink; empty DSN disables it
	WarehouseDSN   string
	WarehouseTable string

	// Redis stream publishing; empty address disables it
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Prometheus listener; empty disables it
	MetricsAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "500"))
	delayMinMs, _ := strconv.Atoi(getEnv("REQUEST_DELAY_MIN_MS", "1000"))
	delayMaxMs, _ := strconv.Atoi(getEnv("REQUEST_DELAY_MAX_MS", "1800"))
	blockSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))

	return &Config{
		Targets:              parseTargets(getEnv("CRAWL_TARGETS", "")),
		Strategies:           DefaultStrategies(),
		DelayMin:             time.Duration(delayMinMs) * time.Millisecond,
		DelayMax:             time.Duration(delayMaxMs) * time.Millisecond,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		BlockTime:            time.Duration(blockSeconds) * time.Second,
		OutputFile:           getEnv("OUTPUT_FILE", "output/catalog_snapshot.csv"),
		WarehouseDSN:         getEnv("WAREHOUSE_DSN", ""),
		WarehouseTable:       getEnv("WAREHOUSE_TABLE", "product_snapshots"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "products"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MetricsAddr:          getEnv("METRICS_ADDR", ""),
		Environment:          getEnv("CATALOG_ENVIRONMENT", "development"),
	}
}

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate ensures the configuration is coherent enough to start a crawl.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("no crawl targets configured")
	}
	for _, t := range c.Targets {
		if t.Name == "" {
			return fmt.Errorf("target with empty name")
		}
		u, err := url.Parse(t.BaseURL)
		if err != nil {
			return fmt.Errorf("target %s: invalid base url: %w", t.Name, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("target %s: base url must be absolute", t.Name)
		}
	}

	if len(c.Strategies) == 0 {
		return fmt.Errorf("no pagination strategies configured")
	}
	for _, s := range c.Strategies {
		if s.Param == "" {
			return fmt.Errorf("strategy %s: empty query parameter", s.Name)
		}
		if len(s.Values) == 0 && s.MaxPages <= 0 {
			return fmt.Errorf("strategy %s: no page values and no max pages", s.Name)
		}
	}

	if c.DelayMin < 0 || c.DelayMax < 0 {
		return fmt.Errorf("politeness delays cannot be negative")
	}
	if c.DelayMax > 0 && c.DelayMin > c.DelayMax {
		return fmt.Errorf("delay min (%s) cannot exceed delay max (%s)", c.DelayMin, c.DelayMax)
	}

	if c.OutputFile == "" && c.WarehouseDSN == "" {
		return fmt.Errorf("no sink configured: set OUTPUT_FILE or WAREHOUSE_DSN")
	}
	if c.WarehouseDSN != "" && !tableNameRe.MatchString(c.WarehouseTable) {
		return fmt.Errorf("invalid warehouse table name %q", c.WarehouseTable)
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
