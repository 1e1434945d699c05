// Package config loads pdxload configuration from YAML with PDXGRAPH_*
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pdxgraph/internal/blob"
	"pdxgraph/internal/core"
)

// Config is the complete pdxload configuration.
type Config struct {
	Log     LogConfig          `yaml:"log"`
	Source  SourceConfig       `yaml:"source"`
	Storage core.StorageConfig `yaml:"storage"`
	Markers MarkersConfig      `yaml:"markers"`
	Load    LoadConfig         `yaml:"load"`
	Reports ReportsConfig      `yaml:"reports"`
	Metrics MetricsConfig      `yaml:"metrics"`
}

type LogConfig struct {
	// Mode is "production" for JSON logs, anything else for console output.
	Mode string `yaml:"mode"`
}

// SourceConfig locates provider release directories: <prefix>/<provider>/*.tsv.
type SourceConfig struct {
	blob.Config `yaml:",inline"`
	Prefix      string `yaml:"prefix"`
}

// MarkersConfig configures marker symbol resolution.
type MarkersConfig struct {
	CatalogPath string        `yaml:"catalog_path"`
	CacheSize   int           `yaml:"cache_size"`
	RedisURL    string        `yaml:"redis_url"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`
}

type LoadConfig struct {
	// Providers to load; empty means every provider found under the source.
	Providers    []string `yaml:"providers"`
	Parallelism  int      `yaml:"parallelism"`
	RequireValid bool     `yaml:"require_valid"`
}

// ReportsConfig controls where load reports are written.
type ReportsConfig struct {
	Enabled bool        `yaml:"enabled"`
	Store   blob.Config `yaml:"store"`
	Prefix  string      `yaml:"prefix"`
}

type MetricsConfig struct {
	// Listen is the address of the /metrics endpoint; empty disables it.
	Listen string `yaml:"listen"`
}

// Default returns a Config with local defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{Mode: "production"},
		Source: SourceConfig{
			Config: blob.Config{Driver: blob.DriverFilesystem, Root: "data"},
		},
		Storage: core.StorageConfig{Driver: core.StorageSQLite, SQLitePath: "pdxgraph.db"},
		Markers: MarkersConfig{CacheSize: 4096, RedisTTL: 24 * time.Hour},
		Load:    LoadConfig{Parallelism: 2},
		Reports: ReportsConfig{
			Enabled: true,
			Store:   blob.Config{Driver: blob.DriverFilesystem, Root: "."},
			Prefix:  "reports",
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PDXGRAPH_* variables found by lookup.
//
//	PDXGRAPH_LOG_MODE
//	PDXGRAPH_SOURCE_DRIVER, PDXGRAPH_SOURCE_ROOT, PDXGRAPH_SOURCE_PREFIX
//	PDXGRAPH_S3_BUCKET, PDXGRAPH_S3_REGION, PDXGRAPH_S3_ENDPOINT
//	PDXGRAPH_STORAGE_DRIVER, PDXGRAPH_SQLITE_PATH, PDXGRAPH_POSTGRES_DSN
//	PDXGRAPH_NEO4J_URI, PDXGRAPH_NEO4J_USER, PDXGRAPH_NEO4J_PASSWORD, PDXGRAPH_NEO4J_DATABASE
//	PDXGRAPH_MARKER_CATALOG, PDXGRAPH_REDIS_URL
//	PDXGRAPH_PROVIDERS (comma separated), PDXGRAPH_PARALLELISM
//	PDXGRAPH_METRICS_LISTEN
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var sourceDriver, storageDriver string
	str("PDXGRAPH_LOG_MODE", &c.Log.Mode)
	str("PDXGRAPH_SOURCE_DRIVER", &sourceDriver)
	str("PDXGRAPH_SOURCE_ROOT", &c.Source.Root)
	str("PDXGRAPH_SOURCE_PREFIX", &c.Source.Prefix)
	str("PDXGRAPH_S3_BUCKET", &c.Source.S3.Bucket)
	str("PDXGRAPH_S3_REGION", &c.Source.S3.Region)
	str("PDXGRAPH_S3_ENDPOINT", &c.Source.S3.Endpoint)
	str("PDXGRAPH_STORAGE_DRIVER", &storageDriver)
	str("PDXGRAPH_SQLITE_PATH", &c.Storage.SQLitePath)
	str("PDXGRAPH_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("PDXGRAPH_NEO4J_URI", &c.Storage.Neo4j.URI)
	str("PDXGRAPH_NEO4J_USER", &c.Storage.Neo4j.User)
	str("PDXGRAPH_NEO4J_PASSWORD", &c.Storage.Neo4j.Password)
	str("PDXGRAPH_NEO4J_DATABASE", &c.Storage.Neo4j.Database)
	str("PDXGRAPH_MARKER_CATALOG", &c.Markers.CatalogPath)
	str("PDXGRAPH_REDIS_URL", &c.Markers.RedisURL)
	str("PDXGRAPH_METRICS_LISTEN", &c.Metrics.Listen)
	if sourceDriver != "" {
		c.Source.Driver = blob.Driver(sourceDriver)
	}
	if storageDriver != "" {
		c.Storage.Driver = core.StorageDriver(storageDriver)
	}
	if v, ok := lookup("PDXGRAPH_PROVIDERS"); ok && strings.TrimSpace(v) != "" {
		c.Load.Providers = splitList(v)
	}
	if v, ok := lookup("PDXGRAPH_PARALLELISM"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PDXGRAPH_PARALLELISM: %w", err)
		}
		c.Load.Parallelism = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Source.Driver {
	case "", blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Source.S3.Bucket == "" {
			return fmt.Errorf("source.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown source driver %q", c.Source.Driver)
	}
	switch c.Storage.Driver {
	case "", core.StorageMemory, core.StorageSQLite, core.StoragePostgres:
	case core.StorageNeo4j:
		if c.Storage.Neo4j.URI == "" {
			return fmt.Errorf("storage.neo4j.uri is required for the neo4j driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Load.Parallelism < 1 {
		return fmt.Errorf("load.parallelism must be at least 1")
	}
	if c.Markers.CacheSize < 0 {
		return fmt.Errorf("markers.cache_size must not be negative")
	}
	return nil
}
