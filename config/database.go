package config

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the connection string for a database; the password is
// injected per connection and never appears here
func (c *Config) DSN(database string) string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		quoteDSN(c.PGHost), quoteDSN(c.PGPort), quoteDSN(c.PGUser), quoteDSN(database), quoteDSN(c.PGSSLMode))
}

// quoteDSN quotes a keyword/value connection string value so empty values
// and values with spaces or quotes stay one field
func quoteDSN(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// beforeConnect returns the pgx hook that sets a fresh password on every
// new physical connection
func beforeConnect(creds CredentialSource) func(context.Context, *pgx.ConnConfig) error {
	return func(ctx context.Context, cc *pgx.ConnConfig) error {
		password, err := creds.Password(ctx)
		if err != nil {
			return err
		}
		cc.Password = password
		return nil
	}
}

// InitDB initializes a connection pool for one database
func InitDB(cfg *Config, database string, creds CredentialSource) (*gorm.DB, error) {
	// Log connection info (masked for security)
	log.Printf("Connecting to database: host=%s port=%s user=%s dbname=%s instance=%s",
		maskHost(cfg.PGHost),
		cfg.PGPort,
		cfg.PGUser,
		database,
		cfg.InstanceName,
	)

	connConfig, err := pgx.ParseConfig(cfg.DSN(database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	sqlDB := stdlib.OpenDB(*connConfig, stdlib.OptionBeforeConnect(beforeConnect(creds)))

	sqlDB.SetMaxOpenConns(cfg.DBPoolMax)
	sqlDB.SetMaxIdleConns(cfg.DBPoolMin)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logLevel),
		DisableAutomaticPing: true,
	})
	if err != nil {
		sqlDB.Close()
		log.Printf("Database connection error: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database %s pool ready (min=%d max=%d)", database, cfg.DBPoolMin, cfg.DBPoolMax)
	return db, nil
}

// PingDB verifies that a connection can be opened, which also proves the
// credential source works
func PingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
