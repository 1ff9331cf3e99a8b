package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, 1000*time.Millisecond, config.DelayMin)
	assert.Equal(t, 1800*time.Millisecond, config.DelayMax)
	assert.Equal(t, 300*time.Second, config.BlockTime)
	assert.Equal(t, "output/catalog_snapshot.csv", config.OutputFile)
	assert.Equal(t, "product_snapshots", config.WarehouseTable)
	assert.Equal(t, "products", config.RedisStream)
	assert.Equal(t, 1, config.RedisStreamCount)
	assert.Equal(t, "development", config.Environment)
	assert.Len(t, config.Targets, 3)
	assert.Len(t, config.Strategies, 5)

	// Test with environment variables
	os.Setenv("CRAWL_TARGETS", "My Store|https://store.example.com/catalog|Phones")
	os.Setenv("REQUEST_DELAY_MIN_MS", "0")
	os.Setenv("REQUEST_DELAY_MAX_MS", "0")
	os.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	os.Setenv("OUTPUT_FILE", "/tmp/snap.csv")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "1")
	os.Setenv("REDIS_STREAM_COUNT", "3")

	config = LoadConfig()
	assert.Len(t, config.Targets, 1)
	assert.Equal(t, "My Store", config.Targets[0].Name)
	assert.Equal(t, "https://store.example.com/catalog", config.Targets[0].BaseURL)
	assert.Equal(t, "Phones", config.Targets[0].Category)
	assert.Equal(t, time.Duration(0), config.DelayMin)
	assert.Equal(t, time.Duration(0), config.DelayMax)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, "/tmp/snap.csv", config.OutputFile)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, 3, config.RedisStreamCount)

	// Clean up
	os.Unsetenv("CRAWL_TARGETS")
	os.Unsetenv("REQUEST_DELAY_MIN_MS")
	os.Unsetenv("REQUEST_DELAY_MAX_MS")
	os.Unsetenv("MEMCACHE_ADDR")
	os.Unsetenv("OUTPUT_FILE")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("REDIS_DB")
	os.Unsetenv("REDIS_STREAM_COUNT")
}

func TestParseTargets(t *testing.T) {
	targets := parseTargets("A|https://a.test; B|https://b.test|Audio ;; broken-entry")
	assert.Len(t, targets, 2)
	assert.Equal(t, "A", targets[0].Name)
	assert.Equal(t, "https://a.test", targets[0].BaseURL)
	assert.Equal(t, "B", targets[1].Name)
	assert.Equal(t, "Audio", targets[1].Category)

	// Empty spec falls back to the compiled-in targets.
	assert.Equal(t, DefaultTargets(), parseTargets("  "))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Targets:    DefaultTargets(),
			Strategies: DefaultStrategies(),
			DelayMin:   time.Second,
			DelayMax:   2 * time.Second,
			OutputFile: "out.csv",
		}
	}

	assert.NoError(t, valid().Validate())

	noTargets := valid()
	noTargets.Targets = nil
	assert.ErrorContains(t, noTargets.Validate(), "no crawl targets")

	relativeURL := valid()
	relativeURL.Targets[0].BaseURL = "/store/page"
	assert.ErrorContains(t, relativeURL.Validate(), "must be absolute")

	noStrategies := valid()
	noStrategies.Strategies = nil
	assert.ErrorContains(t, noStrategies.Validate(), "no pagination strategies")

	badStrategy := valid()
	badStrategy.Strategies[0].Param = ""
	assert.ErrorContains(t, badStrategy.Validate(), "empty query parameter")

	badDelays := valid()
	badDelays.DelayMin = 3 * time.Second
	assert.ErrorContains(t, badDelays.Validate(), "cannot exceed")

	noSink := valid()
	noSink.OutputFile = ""
	assert.ErrorContains(t, noSink.Validate(), "no sink configured")

	badTable := valid()
	badTable.WarehouseDSN = "postgres://localhost/db"
	badTable.WarehouseTable = "snapshots; drop table"
	assert.ErrorContains(t, badTable.Validate(), "invalid warehouse table")
}
