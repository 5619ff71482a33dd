package config

import (
	"context"
	"fmt"
	"log"

	"lakebase_dashboards/services/databricks"
	"lakebase_dashboards/services/metrics"

	"go.opentelemetry.io/otel"
)

// CredentialSource supplies the password for a new database connection
type CredentialSource interface {
	Password(ctx context.Context) (string, error)
}

// StaticPassword is used when no Lakebase instance is configured
type StaticPassword string

func (p StaticPassword) Password(context.Context) (string, error) {
	return string(p), nil
}

// credentialGenerator is the part of the Databricks client we need
type credentialGenerator interface {
	GenerateDatabaseCredential(ctx context.Context, instanceNames ...string) (*databricks.DatabaseCredential, error)
}

// RotatingCredentials mints a fresh OAuth token for every physical
// connection the pool opens. Tokens are never cached here: the pool's
// connection lifetime is what bounds how long a token stays in use.
type RotatingCredentials struct {
	generator    credentialGenerator
	instanceName string
}

// NewRotatingCredentials creates a credential source for a Lakebase instance
func NewRotatingCredentials(generator credentialGenerator, instanceName string) *RotatingCredentials {
	return &RotatingCredentials{generator: generator, instanceName: instanceName}
}

func (r *RotatingCredentials) Password(ctx context.Context) (string, error) {
	ctx, span := otel.Tracer("lakebase_dashboards/config").Start(ctx, "GenerateDatabaseCredential")
	defer span.End()

	cred, err := r.generator.GenerateDatabaseCredential(ctx, r.instanceName)
	if err != nil {
		metrics.CredentialRefreshes.WithLabelValues("error").Inc()
		span.RecordError(err)
		log.Printf("Credential refresh failed for instance %s: %v", r.instanceName, err)
		return "", fmt.Errorf("rotate credential for %s: %w", r.instanceName, err)
	}
	metrics.CredentialRefreshes.WithLabelValues("ok").Inc()
	return cred.Token, nil
}

// NewCredentialSource picks rotating credentials when an instance name is
// configured, otherwise the static PGPASSWORD
func NewCredentialSource(cfg *Config, client *databricks.Client) CredentialSource {
	if cfg.InstanceName != "" && client != nil {
		return NewRotatingCredentials(client, cfg.InstanceName)
	}
	return StaticPassword(cfg.PGPassword)
}
