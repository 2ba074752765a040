package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultConfig returns a Config with the built-in defaults: a local Gremlin
// Server, text logs at info level, tracing off.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "gremlin",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "janusgraph-lab",
			SampleRate:  1.0,
		},
		Seed: SeedConfig{
			ClearFirst:       true,
			EnsureUniqueKeys: true,
		},
	}
}

// setDefaults registers every key with viper so that environment overrides
// reach keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.uri", cfg.Store.URI)
	v.SetDefault("store.traversal_source", cfg.Store.TraversalSource)
	v.SetDefault("store.username", cfg.Store.Username)
	v.SetDefault("store.password", cfg.Store.Password)
	v.SetDefault("store.database", cfg.Store.Database)
	v.SetDefault("store.max_connection_pool_size", cfg.Store.MaxConnectionPoolSize)
	v.SetDefault("store.connection_timeout", cfg.Store.ConnectionTimeout)
	v.SetDefault("store.max_transaction_retry_time", cfg.Store.MaxTransactionRetryTime)
	v.SetDefault("store.connect_retries", cfg.Store.ConnectRetries)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.endpoint", cfg.Tracing.Endpoint)
	v.SetDefault("tracing.insecure", cfg.Tracing.Insecure)
	v.SetDefault("tracing.metrics", cfg.Tracing.Metrics)
	v.SetDefault("tracing.service_name", cfg.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", cfg.Tracing.SampleRate)

	v.SetDefault("seed.clear_first", cfg.Seed.ClearFirst)
	v.SetDefault("seed.ensure_unique_keys", cfg.Seed.EnsureUniqueKeys)
	v.SetDefault("seed.dataset", cfg.Seed.Dataset)

	v.SetDefault("verify.max_hops", cfg.Verify.MaxHops)
	v.SetDefault("verify.battery", cfg.Verify.Battery)
}

// DefaultConfigPath returns ~/.janusgraph-lab/config.yaml, or a path under
// the temporary directory when the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".janusgraph-lab", "config.yaml")
	}
	return filepath.Join(home, ".janusgraph-lab", "config.yaml")
}
