// Package config loads janusgraph-lab configuration from an optional YAML
// file, JANUSGRAPH_LAB_* environment variables and built-in defaults.
package config

import (
	"time"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
)

// Config is the root configuration structure.
type Config struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Seed    SeedConfig    `mapstructure:"seed" yaml:"seed"`
	Verify  VerifyConfig  `mapstructure:"verify" yaml:"verify"`
}

// StoreConfig selects and addresses the graph store. Empty fields fall back
// to the backend defaults of graph.DefaultConfig.
type StoreConfig struct {
	Backend                 string        `mapstructure:"backend" yaml:"backend" validate:"required,oneof=gremlin neo4j"`
	URI                     string        `mapstructure:"uri" yaml:"uri" validate:"omitempty,url"`
	TraversalSource         string        `mapstructure:"traversal_source" yaml:"traversal_source" validate:"omitempty,alphanum"`
	Username                string        `mapstructure:"username" yaml:"username"`
	Password                string        `mapstructure:"password" yaml:"password"`
	Database                string        `mapstructure:"database" yaml:"database"`
	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size" validate:"min=0,max=1000"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" validate:"min=0"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time" validate:"min=0"`
	ConnectRetries          int           `mapstructure:"connect_retries" yaml:"connect_retries" validate:"min=0,max=20"`
}

// ClientConfig returns the connection options for the configured backend.
func (s StoreConfig) ClientConfig() graph.ClientConfig {
	cfg := graph.DefaultConfig(graph.Backend(s.Backend))
	if s.URI != "" {
		cfg.URI = s.URI
	}
	if s.TraversalSource != "" {
		cfg.TraversalSource = s.TraversalSource
	}
	if s.Username != "" {
		cfg.Username = s.Username
	}
	if s.Password != "" {
		cfg.Password = s.Password
	}
	if s.Database != "" {
		cfg.Database = s.Database
	}
	if s.MaxConnectionPoolSize > 0 {
		cfg.MaxConnectionPoolSize = s.MaxConnectionPoolSize
	}
	if s.ConnectionTimeout > 0 {
		cfg.ConnectionTimeout = s.ConnectionTimeout
	}
	if s.MaxTransactionRetryTime > 0 {
		cfg.MaxTransactionRetryTime = s.MaxTransactionRetryTime
	}
	if s.ConnectRetries > 0 {
		cfg.ConnectRetries = s.ConnectRetries
	}
	return cfg
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=json text"`
}

// TracingConfig contains OpenTelemetry export settings. Spans, and query
// metrics when Metrics is set, are pushed over OTLP gRPC to Endpoint.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	Metrics     bool    `mapstructure:"metrics" yaml:"metrics"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name" validate:"required"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"min=0,max=1"`
}

// SeedConfig controls the seed command.
type SeedConfig struct {
	ClearFirst       bool   `mapstructure:"clear_first" yaml:"clear_first"`
	EnsureUniqueKeys bool   `mapstructure:"ensure_unique_keys" yaml:"ensure_unique_keys"`
	Dataset          string `mapstructure:"dataset" yaml:"dataset"`
}

// VerifyConfig controls the verify command.
type VerifyConfig struct {
	MaxHops int    `mapstructure:"max_hops" yaml:"max_hops" validate:"min=0,max=10"`
	Battery string `mapstructure:"battery" yaml:"battery"`
}
