package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/querykit/pkg/observability"
	"github.com/platinummonkey/querykit/pkg/schema"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "QUERYKIT_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "QUERYKIT_TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"returns true for 'true'", "true", false, true},
		{"returns true for 'TRUE'", "TRUE", false, true},
		{"returns true for '1'", "1", false, true},
		{"returns false for 'false'", "false", true, false},
		{"returns false for anything else", "yes", true, false},
		{"returns default when unset", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("QUERYKIT_TEST_BOOL", tt.envValue)
			}

			got := getEnvBool("QUERYKIT_TEST_BOOL", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"parses valid integer", "42", 42},
		{"parses negative integer", "-3", -3},
		{"returns default for invalid integer", "forty", 7},
		{"returns default when unset", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("QUERYKIT_TEST_INT", tt.envValue)
			}

			got := getEnvInt("QUERYKIT_TEST_INT", 7)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{"parses seconds", "30s", 30 * time.Second},
		{"parses minutes", "5m", 5 * time.Minute},
		{"returns default for invalid duration", "soon", time.Second},
		{"returns default when unset", "", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("QUERYKIT_TEST_DURATION", tt.envValue)
			}

			got := getEnvDuration("QUERYKIT_TEST_DURATION", time.Second)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestParseLogLevel tests log level parsing
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  observability.LogLevel
	}{
		{"debug", observability.DebugLevel},
		{"DEBUG", observability.DebugLevel},
		{"info", observability.InfoLevel},
		{"warn", observability.WarnLevel},
		{"warning", observability.WarnLevel},
		{" error ", observability.ErrorLevel},
		{"invalid", observability.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got := parseLogLevel(tt.level)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

// TestLoadDatabaseConfig tests defaults and overrides of the database settings
func TestLoadDatabaseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := loadDatabaseConfig()
		if cfg.Driver != "postgres" {
			t.Errorf("Driver = %v, want postgres", cfg.Driver)
		}
		if cfg.MaxConns != 20 || cfg.MinConns != 5 {
			t.Errorf("pool = %d/%d, want 20/5", cfg.MaxConns, cfg.MinConns)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
		}
		if cfg.ReplicaDSNs != nil {
			t.Errorf("ReplicaDSNs = %v, want nil", cfg.ReplicaDSNs)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("QUERYKIT_DB_DRIVER", "sqlite3")
		t.Setenv("QUERYKIT_DSN", "file:test.db")
		t.Setenv("QUERYKIT_REPLICA_DSNS", "file:a.db, file:b.db")
		t.Setenv("QUERYKIT_DB_MAX_CONNS", "8")
		t.Setenv("QUERYKIT_DB_TIMEOUT", "1s")

		cfg := loadDatabaseConfig()
		if cfg.Driver != "sqlite3" || cfg.DSN != "file:test.db" {
			t.Errorf("driver/dsn = %v/%v", cfg.Driver, cfg.DSN)
		}
		if len(cfg.ReplicaDSNs) != 2 || cfg.ReplicaDSNs[1] != "file:b.db" {
			t.Errorf("ReplicaDSNs = %v", cfg.ReplicaDSNs)
		}
		if cfg.MaxConns != 8 || cfg.Timeout != time.Second {
			t.Errorf("MaxConns/Timeout = %d/%v", cfg.MaxConns, cfg.Timeout)
		}

		conn := cfg.Connection()
		if conn.PrimaryURL != cfg.DSN || conn.Driver != "sqlite3" || len(conn.ReplicaURLs) != 2 {
			t.Errorf("Connection() = %+v", conn)
		}
	})
}

// TestLoadSchemaConfig tests the schema settings
func TestLoadSchemaConfig(t *testing.T) {
	cfg := loadSchemaConfig()
	defaults := schema.DefaultCacheConfig()
	if cfg.Name != "public" || cfg.CatalogPath != "catalog.yaml" {
		t.Errorf("schema/catalog = %v/%v", cfg.Name, cfg.CatalogPath)
	}
	if cfg.CacheSize != defaults.MaxEntries || cfg.CacheTTL != defaults.TTL {
		t.Errorf("cache = %d/%v", cfg.CacheSize, cfg.CacheTTL)
	}

	t.Setenv("QUERYKIT_SCHEMA_CACHE_SIZE", "16")
	t.Setenv("QUERYKIT_SCHEMA_CACHE_TTL", "1m")
	cache := loadSchemaConfig().Cache()
	if cache.MaxEntries != 16 || cache.TTL != time.Minute {
		t.Errorf("Cache() = %+v", cache)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}

	t.Setenv("QUERYKIT_SCHEMA_REDIS_URL", "redis://cache:6379/1")
	if got := loadSchemaConfig().RedisURL; got != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q", got)
	}
}

// TestLoadObservabilityConfig tests the observability settings
func TestLoadObservabilityConfig(t *testing.T) {
	t.Setenv("QUERYKIT_LOG_LEVEL", "debug")
	t.Setenv("QUERYKIT_METRICS_ENABLED", "false")

	cfg := loadObservabilityConfig()
	if cfg.LogLevel != observability.DebugLevel {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			DSN:      "postgres://localhost/app",
			MaxConns: 10,
			MinConns: 2,
			Timeout:  time.Second,
		},
		Schema: SchemaConfig{
			CatalogPath: "catalog.yaml",
			CacheSize:   10,
		},
	}
}

// TestConfigValidate tests configuration validation
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unsupported driver", func(c *Config) { c.Database.Driver = "mysql" }, "unsupported driver"},
		{"missing DSN", func(c *Config) { c.Database.DSN = "" }, "database DSN is required"},
		{"zero max connections", func(c *Config) { c.Database.MaxConns = 0 }, "max connections must be positive"},
		{"min above max", func(c *Config) { c.Database.MinConns = 11 }, "min connections must be between"},
		{"zero timeout", func(c *Config) { c.Database.Timeout = 0 }, "database timeout must be positive"},
		{"missing catalog", func(c *Config) { c.Schema.CatalogPath = "" }, "catalog path is required"},
		{"zero cache", func(c *Config) { c.Schema.CacheSize = 0 }, "schema cache size must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfig tests loading from environment
func TestLoadConfig(t *testing.T) {
	t.Run("missing DSN", func(t *testing.T) {
		t.Setenv("QUERYKIT_DSN", "")
		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() expected error, got nil")
		}
	})

	t.Run("valid config", func(t *testing.T) {
		t.Setenv("QUERYKIT_DB_DRIVER", "sqlite3")
		t.Setenv("QUERYKIT_DSN", ":memory:")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Database.Driver != "sqlite3" {
			t.Errorf("Driver = %v, want sqlite3", cfg.Database.Driver)
		}
	})
}

const catalogYAML = `
entities:
  - name: users
    searchable: [name, "email:like", "posts.title:like"]
    criteria: [request]
    relations:
      posts: {kind: has_many, entity: posts}
      company: {kind: belongs_to, entity: companies, foreign_key: employer_id}
  - name: posts
  - name: companies
    table: organisations
`

// TestParseCatalog tests catalog decoding and defaults
func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("ParseCatalog() error = %v", err)
	}

	users, ok := catalog.Entity("users")
	if !ok {
		t.Fatal("users entity missing")
	}
	if users.Table != "users" || users.PrimaryKey != "id" {
		t.Errorf("users table/pk = %v/%v", users.Table, users.PrimaryKey)
	}
	if len(users.Searchable) != 3 || users.Criteria[0] != "request" {
		t.Errorf("users searchable/criteria = %v/%v", users.Searchable, users.Criteria)
	}

	links, ok := catalog.Resolve(users, "company")
	if !ok {
		t.Fatal("company relation did not resolve")
	}
	if links[0].Table() != "organisations" || links[0].ParentKey != "employer_id" {
		t.Errorf("company link = %+v", links[0])
	}
}

// TestParseCatalog_Errors tests rejected catalogs
func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no entities", "entities: []"},
		{"unknown key", "entities:\n  - name: users\n    colour: blue\n"},
		{"unknown relation target", "entities:\n  - name: users\n    relations:\n      posts: {entity: posts}\n"},
		{"invalid table", "entities:\n  - name: users\n    table: \"users; drop\"\n"},
		{"malformed", "entities: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.yaml)); err == nil {
				t.Error("ParseCatalog() expected error, got nil")
			}
		})
	}
}

// TestLoadCatalog tests reading the catalog file
func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(catalog.Entities()) != 3 {
		t.Errorf("entities = %d, want 3", len(catalog.Entities()))
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadCatalog() expected error for missing file")
	}
}
