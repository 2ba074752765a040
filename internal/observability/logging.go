package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/infobarbosa/janusgraph-lab/internal/config"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// sensitiveKeys are attribute keys whose values never reach a log line.
// Keys are compared lowercased with underscores removed.
var sensitiveKeys = map[string]bool{
	"password":   true,
	"secret":     true,
	"token":      true,
	"credential": true,
	"apikey":     true,
}

// NewLogger builds a slog.Logger from cfg writing to w.
func NewLogger(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(NewJSONHandler(w, level)), nil
	case "text", "":
		return slog.New(NewTextHandler(w, level)), nil
	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unsupported log format %q", cfg.Format))
	}
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unsupported log level %q", level))
	}
}

// NewJSONHandler creates a JSON handler that redacts sensitive attributes.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSensitive,
	})
}

// NewTextHandler creates a text handler that redacts sensitive attributes.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSensitive,
	})
}

func redactSensitive(_ []string, a slog.Attr) slog.Attr {
	normalized := strings.ToLower(strings.ReplaceAll(a.Key, "_", ""))
	if sensitiveKeys[normalized] {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}
