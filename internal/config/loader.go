package config

import (
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. JANUSGRAPH_LAB_STORE_URI.
const EnvPrefix = "JANUSGRAPH_LAB"

// ConfigLoader loads configuration.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a ConfigLoader that validates with validator.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{validator: validator}
}

// Load reads the YAML file at path, which must exist.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	return l.load(path, true)
}

// LoadWithDefaults is Load, except that a missing file (or an empty path)
// yields defaults plus environment overrides.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if path == "" {
		return l.load("", false)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return l.load("", false)
	}
	return l.load(path, true)
}

func (l *viperConfigLoader) load(path string, readFile bool) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if readFile {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file "+path, err)
		}
	}

	for _, key := range v.AllKeys() {
		if s, ok := v.Get(key).(string); ok {
			v.Set(key, interpolateString(s))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to unmarshal config", err)
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with the value of VAR_NAME. Unset
// variables are left as written.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}
