package traversal

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"time"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks a label, key or property name. kind names the
// role of s in the error message.
func ValidateIdentifier(kind, s string) error {
	if s == "" {
		return types.NewError(types.INVALID_IDENTIFIER, kind+" cannot be empty")
	}
	if !identifierPattern.MatchString(s) {
		return types.NewError(types.INVALID_IDENTIFIER,
			fmt.Sprintf("%s %q must match %s", kind, s, identifierPattern.String()))
	}
	return nil
}

// ValidateValue checks that v is a scalar a property can hold.
func ValidateValue(name string, v any) error {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		float32, float64,
		time.Time:
		return nil
	case nil:
		return types.NewError(types.INVALID_ARGUMENT,
			fmt.Sprintf("property %q has no value", name))
	default:
		return types.NewError(types.INVALID_ARGUMENT,
			fmt.Sprintf("property %q has non-scalar value of type %T", name, v))
	}
}

// sortedProperties validates extra and returns its keys in order. A write
// to reserved would change the entity's deduplication key and is refused.
func sortedProperties(extra map[string]any, reserved string) ([]string, error) {
	keys := slices.Sorted(maps.Keys(extra))
	for _, k := range keys {
		if err := ValidateIdentifier("property", k); err != nil {
			return nil, err
		}
		if reserved != "" && k == reserved {
			return nil, types.NewError(types.INVALID_ARGUMENT,
				fmt.Sprintf("property %q is the key property and cannot be overwritten", k))
		}
		if err := ValidateValue(k, extra[k]); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
