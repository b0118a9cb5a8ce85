// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings, and reads the YAML entity catalog.
//
// # Configuration Structure
//
// Database settings:
//
//	QUERYKIT_DB_DRIVER="postgres"  # postgres or sqlite3
//	QUERYKIT_DSN="postgres://localhost/app?sslmode=disable"
//	QUERYKIT_REPLICA_DSNS="postgres://replica1/app,postgres://replica2/app"
//	QUERYKIT_DB_MAX_CONNS="20"
//	QUERYKIT_DB_MIN_CONNS="5"
//	QUERYKIT_DB_TIMEOUT="5s"
//
// Schema settings:
//
//	QUERYKIT_SCHEMA="public"
//	QUERYKIT_CATALOG="catalog.yaml"
//	QUERYKIT_SCHEMA_CACHE_SIZE="256"
//	QUERYKIT_SCHEMA_CACHE_TTL="5m"
//	QUERYKIT_SCHEMA_REDIS_URL="redis://localhost:6379/0"  # optional shared cache
//
// Observability settings:
//
//	QUERYKIT_LOG_LEVEL="info"  # debug, info, warn, error
//	QUERYKIT_METRICS_ENABLED="true"
//	QUERYKIT_SHUTDOWN_TIMEOUT="30s"
//
// # Catalog
//
// The catalog names every entity a repository may serve:
//
//	entities:
//	  - name: users
//	    searchable: [name, "email:like", "posts.title:like"]
//	    criteria: [request]
//	    relations:
//	      posts: {kind: has_many, entity: posts}
//	      company: {kind: belongs_to, entity: companies}
//	  - name: posts
//	  - name: companies
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	catalog, err := config.LoadCatalog(cfg.Schema.CatalogPath)
package config
