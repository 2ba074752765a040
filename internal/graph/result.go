package graph

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// ID is an opaque store-assigned identifier.
type ID struct {
	value any
}

// NewID wraps a backend-native identifier.
func NewID(v any) ID {
	return ID{value: v}
}

// Value returns the backend-native identifier.
func (id ID) Value() any {
	return id.value
}

// IsZero reports whether id holds no identifier.
func (id ID) IsZero() bool {
	return id.value == nil
}

func (id ID) String() string {
	if id.value == nil {
		return "<nil>"
	}
	return fmt.Sprint(id.value)
}

// MarshalText renders the identifier for JSON output.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// EntityKey addresses an entity by its label and deduplication key.
type EntityKey struct {
	Label    string `json:"label" yaml:"label"`
	Property string `json:"property" yaml:"property"`
	Value    any    `json:"value" yaml:"value"`
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s(%s=%v)", k.Label, k.Property, k.Value)
}

// Vertex is a decoded graph vertex.
type Vertex struct {
	ID         ID
	Label      string
	Properties map[string]any
}

// Edge is a decoded graph edge, directed from OutV to InV.
type Edge struct {
	ID         ID
	Label      string
	OutV       ID
	InV        ID
	Properties map[string]any
}

// PathStep is one vertex of a path.
type PathStep struct {
	ID      ID     `json:"id"`
	Label   string `json:"label"`
	Display any    `json:"display,omitempty"`
}

// Path is a walk through the graph, starting vertex first.
type Path struct {
	Steps []PathStep `json:"steps"`
}

// Hops returns the number of edges traversed.
func (p Path) Hops() int {
	if len(p.Steps) == 0 {
		return 0
	}
	return len(p.Steps) - 1
}

func (p Path) String() string {
	out := ""
	for i, s := range p.Steps {
		if i > 0 {
			out += " -> "
		}
		if s.Display != nil && s.Display != "" {
			out += fmt.Sprint(s.Display)
		} else {
			out += s.Label + "[" + s.ID.String() + "]"
		}
	}
	return out
}

// ResultSet is the decoded sequence returned by one query.
type ResultSet []any

// Len returns the number of results.
func (r ResultSet) Len() int {
	return len(r)
}

// First returns the first result, if any.
func (r ResultSet) First() (any, bool) {
	if len(r) == 0 {
		return nil, false
	}
	return r[0], true
}

// Int64 decodes a single integer result such as a count.
func (r ResultSet) Int64() (int64, error) {
	v, ok := r.First()
	if !ok {
		return 0, types.NewError(types.RESULT_DECODE_FAILED, "expected one integer result, got none")
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, types.NewError(types.RESULT_DECODE_FAILED,
			fmt.Sprintf("expected integer result, got %T", v))
	}
}

// ID returns the first result as an identifier. It reports false on an
// empty result set.
func (r ResultSet) ID() (ID, bool) {
	v, ok := r.First()
	if !ok || v == nil {
		return ID{}, false
	}
	return NewID(v), true
}

// Values returns the results as a plain slice.
func (r ResultSet) Values() []any {
	out := make([]any, len(r))
	copy(out, r)
	return out
}

// Paths decodes every result as a path. Results may already be Path values
// or lists of step maps with "id", "label" and "display" keys.
func (r ResultSet) Paths() ([]Path, error) {
	paths := make([]Path, 0, len(r))
	for i, v := range r {
		p, err := decodePath(v)
		if err != nil {
			return nil, types.WrapError(types.RESULT_DECODE_FAILED,
				fmt.Sprintf("result %d is not a path", i), err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

type pathStepRecord struct {
	ID      any    `mapstructure:"id"`
	Label   string `mapstructure:"label"`
	Display any    `mapstructure:"display"`
}

func decodePath(v any) (Path, error) {
	switch p := v.(type) {
	case Path:
		return p, nil
	case []any:
		steps := make([]PathStep, 0, len(p))
		for _, obj := range p {
			step, err := decodePathStep(obj)
			if err != nil {
				return Path{}, err
			}
			steps = append(steps, step)
		}
		return Path{Steps: steps}, nil
	default:
		return Path{}, fmt.Errorf("unexpected path type %T", v)
	}
}

func decodePathStep(obj any) (PathStep, error) {
	switch s := obj.(type) {
	case Vertex:
		return PathStep{ID: s.ID, Label: s.Label, Display: nil}, nil
	case map[string]any:
		var rec pathStepRecord
		if err := mapstructure.Decode(s, &rec); err != nil {
			return PathStep{}, err
		}
		return PathStep{ID: NewID(rec.ID), Label: rec.Label, Display: rec.Display}, nil
	default:
		return PathStep{ID: NewID(obj)}, nil
	}
}

// normalize converts nested driver containers to map[string]any and []any.
func normalize(v any, convert func(any) (any, bool)) any {
	if convert != nil {
		if out, ok := convert(v); ok {
			return out
		}
	}
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val, convert)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val, convert)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val, convert)
		}
		return out
	default:
		return v
	}
}
