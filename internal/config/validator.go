package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a ConfigValidator backed by go-playground/validator.
func NewValidator() ConfigValidator {
	return &validatorImpl{validate: validator.New()}
}

// Validate checks struct tags, then the cross-field rules, and reports every
// violation with its snake_case field path.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	var messages []string
	if err := v.validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		messages = append(messages, "tracing.endpoint is required when tracing.enabled is true")
	}
	if cfg.Store.Backend == "neo4j" && cfg.Store.TraversalSource != "" {
		messages = append(messages, "store.traversal_source applies to the gremlin backend only")
	}

	if len(messages) > 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - "+strings.Join(messages, "\n  - "))
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldPath)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", fieldPath, e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", fieldPath, e.Tag(), e.Value())
	}
}

// formatFieldPath turns "Config.Store.MaxConnectionPoolSize" into
// "store.max_connection_pool_size".
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}

	result := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		result = append(result, camelToSnake(p))
	}
	return strings.Join(result, ".")
}

// camelToSnake converts CamelCase to snake_case. Runs of capitals such as
// "URI" stay together.
func camelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
