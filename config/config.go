package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Dashboard identifiers
const (
	DashboardTelecom      = "telecom"
	DashboardContentPulse = "contentpulse"
)

// Snapshot store backends
const (
	SnapshotStoreNone   = "none"
	SnapshotStoreRedis  = "redis"
	SnapshotStoreSQLite = "sqlite"
	SnapshotStoreS3     = "s3"
)

type Config struct {
	Port        string   `env:"PORT" envDefault:"8000"`
	Environment string   `env:"ENVIRONMENT" envDefault:"development"`
	Dashboards  []string `env:"DASHBOARDS" envDefault:"telecom,contentpulse" envSeparator:","`

	// Databricks workspace used to mint database credentials
	DatabricksHost         string `env:"DATABRICKS_HOST"`
	DatabricksToken        string `env:"DATABRICKS_TOKEN"`
	DatabricksClientID     string `env:"DATABRICKS_CLIENT_ID"`
	DatabricksClientSecret string `env:"DATABRICKS_CLIENT_SECRET"`
	InstanceName           string `env:"INSTANCE_NAME"`

	PGHost     string `env:"PGHOST" envDefault:"localhost"`
	PGPort     string `env:"PGPORT" envDefault:"5432"`
	PGUser     string `env:"PGUSER"`
	PGPassword string `env:"PGPASSWORD"`
	PGSSLMode  string `env:"PGSSLMODE" envDefault:"require"`
	PGDatabase string `env:"PGDATABASE" envDefault:"databricks_postgres"`

	DBPoolMin         int           `env:"DB_POOL_MIN" envDefault:"2"`
	DBPoolMax         int           `env:"DB_POOL_MAX" envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"45m"`
	QueryRowLimit     int           `env:"QUERY_ROW_LIMIT" envDefault:"0"`

	Telecom      TelecomConfig
	ContentPulse ContentPulseConfig

	SnapshotStore string `env:"SNAPSHOT_STORE" envDefault:"none"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/snapshots.db"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`

	FigureCacheSize  int64   `env:"FIGURE_CACHE_SIZE" envDefault:"1000"`
	RateLimitRPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst   int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	WebSocketClients int     `env:"WS_MAX_CLIENTS" envDefault:"100"`
	TracingEnabled   bool    `env:"TRACING_ENABLED" envDefault:"false"`
}

// TelecomConfig holds the telecom IoT dashboard settings
type TelecomConfig struct {
	Database     string        `env:"TELECOM_PGDATABASE"`
	Schema       string        `env:"TELECOM_SCHEMA" envDefault:"telcom"`
	Table        string        `env:"TELECOM_TABLE" envDefault:"iot_data_synced"`
	FastInterval time.Duration `env:"TELECOM_FAST_INTERVAL" envDefault:"30s"`
	SlowInterval time.Duration `env:"TELECOM_SLOW_INTERVAL" envDefault:"60s"`
}

// ContentPulseConfig holds the publishing dashboard settings
type ContentPulseConfig struct {
	Database       string        `env:"CONTENTPULSE_PGDATABASE"`
	Schema         string        `env:"SCHEMA_NAME" envDefault:"publishing"`
	Table          string        `env:"TABLE_NAME" envDefault:"content_engagement_synced"`
	FastInterval   time.Duration `env:"CONTENTPULSE_FAST_INTERVAL" envDefault:"10s"`
	MediumInterval time.Duration `env:"CONTENTPULSE_MEDIUM_INTERVAL" envDefault:"30s"`
	SlowInterval   time.Duration `env:"CONTENTPULSE_SLOW_INTERVAL" envDefault:"60s"`
}

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for i, id := range cfg.Dashboards {
		cfg.Dashboards[i] = strings.TrimSpace(id)
	}
	if cfg.Telecom.Database == "" {
		cfg.Telecom.Database = cfg.PGDatabase
	}
	if cfg.ContentPulse.Database == "" {
		cfg.ContentPulse.Database = cfg.PGDatabase
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	for _, id := range c.Dashboards {
		if id != DashboardTelecom && id != DashboardContentPulse {
			return fmt.Errorf("unknown dashboard %q in DASHBOARDS", id)
		}
	}
	if c.DBPoolMin < 0 || c.DBPoolMax <= 0 || c.DBPoolMin > c.DBPoolMax {
		return fmt.Errorf("invalid pool bounds min=%d max=%d", c.DBPoolMin, c.DBPoolMax)
	}
	if c.InstanceName != "" && c.DatabricksHost == "" {
		return errors.New("DATABRICKS_HOST is required when INSTANCE_NAME is set")
	}
	// Without a workspace there is no current user to fall back to.
	if c.PGUser == "" && c.DatabricksHost == "" {
		return errors.New("PGUSER is required when DATABRICKS_HOST is not set")
	}
	for _, ident := range []string{c.Telecom.Schema, c.Telecom.Table, c.ContentPulse.Schema, c.ContentPulse.Table} {
		if !validIdentifier(ident) {
			return fmt.Errorf("invalid schema or table name %q", ident)
		}
	}
	switch c.SnapshotStore {
	case SnapshotStoreNone, SnapshotStoreRedis, SnapshotStoreSQLite:
	case SnapshotStoreS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return errors.New("S3 endpoint/bucket/access/secret are required for the s3 snapshot store")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_STORE %q", c.SnapshotStore)
	}
	return nil
}

// Enabled reports whether the dashboard id is served by this process
func (c *Config) Enabled(id string) bool {
	for _, d := range c.Dashboards {
		if d == id {
			return true
		}
	}
	return false
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// validIdentifier accepts the unquoted Postgres identifiers used for
// schema and table names, which are interpolated into the query
func validIdentifier(s string) bool {
	if s == "" || len(s) > 63 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// maskHost masks host for logging, preserving domain structure
func maskHost(host string) string {
	if len(host) <= 3 {
		return "***"
	}
	if len(host) <= 15 {
		return host[:3] + "***"
	}
	return host[:8] + "***" + host[len(host)-10:]
}
