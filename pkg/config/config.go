package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/querykit/pkg/database"
	"github.com/platinummonkey/querykit/pkg/observability"
	"github.com/platinummonkey/querykit/pkg/query"
	"github.com/platinummonkey/querykit/pkg/schema"
)

// Config holds all application configuration
type Config struct {
	// Database connection configuration
	Database DatabaseConfig

	// Schema and catalog configuration
	Schema SchemaConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// DatabaseConfig holds connection settings for the primary and its replicas
type DatabaseConfig struct {
	Driver      string
	DSN         string
	ReplicaDSNs []string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// SchemaConfig holds the entity catalog and column inspection settings
type SchemaConfig struct {
	// Name is the PostgreSQL schema inspected for columns
	Name        string
	CatalogPath string
	CacheSize   int
	CacheTTL    time.Duration
	// RedisURL enables a column cache shared between processes
	RedisURL string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	ShutdownTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database:      loadDatabaseConfig(),
		Schema:        loadSchemaConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:      getEnv("QUERYKIT_DB_DRIVER", "postgres"),
		DSN:         getEnv("QUERYKIT_DSN", ""),
		ReplicaDSNs: database.ParseReplicaURLs(getEnv("QUERYKIT_REPLICA_DSNS", "")),
		MaxConns:    getEnvInt("QUERYKIT_DB_MAX_CONNS", 20),
		MinConns:    getEnvInt("QUERYKIT_DB_MIN_CONNS", 5),
		Timeout:     getEnvDuration("QUERYKIT_DB_TIMEOUT", 5*time.Second),
		MaxLifetime: getEnvDuration("QUERYKIT_DB_MAX_LIFETIME", 30*time.Minute),
		MaxIdleTime: getEnvDuration("QUERYKIT_DB_MAX_IDLE_TIME", 5*time.Minute),
	}
}

// loadSchemaConfig loads schema configuration from environment
func loadSchemaConfig() SchemaConfig {
	defaults := schema.DefaultCacheConfig()
	return SchemaConfig{
		Name:        getEnv("QUERYKIT_SCHEMA", "public"),
		CatalogPath: getEnv("QUERYKIT_CATALOG", "catalog.yaml"),
		CacheSize:   getEnvInt("QUERYKIT_SCHEMA_CACHE_SIZE", defaults.MaxEntries),
		CacheTTL:    getEnvDuration("QUERYKIT_SCHEMA_CACHE_TTL", defaults.TTL),
		RedisURL:    getEnv("QUERYKIT_SCHEMA_REDIS_URL", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:        parseLogLevel(getEnv("QUERYKIT_LOG_LEVEL", "info")),
		MetricsEnabled:  getEnvBool("QUERYKIT_METRICS_ENABLED", true),
		ShutdownTimeout: getEnvDuration("QUERYKIT_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate database config
	if _, err := query.ParseDialect(c.Database.Driver); err != nil {
		return err
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("min connections must be between 0 and max connections (%d)", c.Database.MaxConns)
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}

	// Validate schema config
	if c.Schema.CatalogPath == "" {
		return fmt.Errorf("catalog path is required")
	}
	if c.Schema.CacheSize <= 0 {
		return fmt.Errorf("schema cache size must be positive")
	}

	return nil
}

// Connection returns the connection manager settings
func (d DatabaseConfig) Connection() database.ConnectionConfig {
	return database.ConnectionConfig{
		Driver:      d.Driver,
		PrimaryURL:  d.DSN,
		ReplicaURLs: d.ReplicaDSNs,
		MaxConns:    d.MaxConns,
		MinConns:    d.MinConns,
		Timeout:     d.Timeout,
		MaxLifetime: d.MaxLifetime,
		MaxIdleTime: d.MaxIdleTime,
	}
}

// Cache returns the column cache settings
func (s SchemaConfig) Cache() *schema.CacheConfig {
	return &schema.CacheConfig{MaxEntries: s.CacheSize, TTL: s.CacheTTL}
}

// parseLogLevel parses a log level string, falling back to info
func parseLogLevel(level string) observability.LogLevel {
	l, err := observability.ParseLogLevel(strings.TrimSpace(level))
	if err != nil {
		return observability.InfoLevel
	}
	return l
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
