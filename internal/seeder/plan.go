package seeder

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/traversal"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Ref is the logical name a plan gives an entity.
type Ref string

// EntitySpec declares one entity. Entities are the leaves of a plan.
type EntitySpec struct {
	Ref        Ref            `yaml:"ref" json:"ref"`
	Label      string         `yaml:"label" json:"label"`
	Key        string         `yaml:"key" json:"key"`
	Value      any            `yaml:"value" json:"value"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// EntityKey returns the lookup key of the entity.
func (e EntitySpec) EntityKey() graph.EntityKey {
	return graph.EntityKey{Label: e.Label, Property: e.Key, Value: e.Value}
}

// RelationshipSpec declares one relationship between two entity refs. A
// symmetric relationship is stored as two directed edges, From -> To first.
type RelationshipSpec struct {
	From       Ref            `yaml:"from" json:"from"`
	Label      string         `yaml:"label" json:"label"`
	To         Ref            `yaml:"to" json:"to"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	Symmetric  bool           `yaml:"symmetric,omitempty" json:"symmetric,omitempty"`
}

// Plan is a graph construction plan. Relationships depend on the entities
// they name, so Apply writes all entities before any relationship.
type Plan struct {
	Name          string             `yaml:"name" json:"name"`
	Entities      []EntitySpec       `yaml:"entities" json:"entities"`
	Relationships []RelationshipSpec `yaml:"relationships" json:"relationships"`
}

// EdgeCount returns the number of edges the relationships produce.
func (p *Plan) EdgeCount() int {
	n := 0
	for _, r := range p.Relationships {
		if r.Symmetric {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Validate checks refs, identifiers and property values without touching
// the store.
func (p *Plan) Validate() error {
	seen := make(map[Ref]bool, len(p.Entities))
	for i, e := range p.Entities {
		if e.Ref == "" {
			return invalidPlan(fmt.Sprintf("entity %d has no ref", i), nil)
		}
		if seen[e.Ref] {
			return invalidPlan(fmt.Sprintf("duplicate entity ref %q", e.Ref), nil)
		}
		seen[e.Ref] = true

		if err := traversal.ValidateIdentifier("label", e.Label); err != nil {
			return invalidPlan(fmt.Sprintf("entity %q", e.Ref), err)
		}
		if err := traversal.ValidateIdentifier("key property", e.Key); err != nil {
			return invalidPlan(fmt.Sprintf("entity %q", e.Ref), err)
		}
		if err := traversal.ValidateValue(e.Key, e.Value); err != nil {
			return invalidPlan(fmt.Sprintf("entity %q", e.Ref), err)
		}
		if err := validateProperties(e.Properties, e.Key); err != nil {
			return invalidPlan(fmt.Sprintf("entity %q", e.Ref), err)
		}
	}

	for i, r := range p.Relationships {
		if !seen[r.From] {
			return invalidPlan(fmt.Sprintf("relationship %d (%s) names unknown source %q", i, r.Label, r.From), nil)
		}
		if !seen[r.To] {
			return invalidPlan(fmt.Sprintf("relationship %d (%s) names unknown target %q", i, r.Label, r.To), nil)
		}
		if err := traversal.ValidateIdentifier("relationship label", r.Label); err != nil {
			return invalidPlan(fmt.Sprintf("relationship %d", i), err)
		}
		if err := validateProperties(r.Properties, ""); err != nil {
			return invalidPlan(fmt.Sprintf("relationship %d (%s)", i, r.Label), err)
		}
	}
	return nil
}

func validateProperties(props map[string]any, reserved string) error {
	for k, v := range props {
		if err := traversal.ValidateIdentifier("property", k); err != nil {
			return err
		}
		if reserved != "" && k == reserved {
			return types.NewError(types.INVALID_ARGUMENT,
				fmt.Sprintf("property %q is the key property and cannot be overwritten", k))
		}
		if err := traversal.ValidateValue(k, v); err != nil {
			return err
		}
	}
	return nil
}

func invalidPlan(msg string, cause error) error {
	if cause == nil {
		return types.NewError(types.DATASET_INVALID, msg)
	}
	return types.WrapError(types.DATASET_INVALID, msg, cause)
}

// LoadPlan decodes a YAML plan and validates it.
func LoadPlan(r io.Reader) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, types.WrapError(types.DATASET_LOAD_FAILED, "failed to decode dataset", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPlanFile reads and validates the YAML plan at path.
func LoadPlanFile(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError(types.DATASET_LOAD_FAILED,
			fmt.Sprintf("failed to open dataset %s", path), err)
	}
	defer f.Close()
	return LoadPlan(f)
}

// Handles maps plan refs to store identifiers for one run.
type Handles map[Ref]graph.ID

// ApplyOptions controls a plan run.
type ApplyOptions struct {
	// Clear wipes the graph before writing.
	Clear bool
	// EnsureUniqueKeys requests a uniqueness constraint for every distinct
	// (label, key) pair before the entities are written.
	EnsureUniqueKeys bool
}

// RunSummary describes one plan run. On failure it counts the writes that
// completed before the error.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Plan       string        `json:"plan"`
	Cleared    bool          `json:"cleared"`
	UniqueKeys int           `json:"unique_keys"`
	Entities   int           `json:"entities"`
	Edges      int           `json:"edges"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Apply executes plan: optional clear, optional uniqueness constraints,
// every entity, then every relationship in declaration order. It stops at
// the first failure; completed writes are not rolled back.
func (s *Seeder) Apply(ctx context.Context, plan *Plan, opts ApplyOptions) (Handles, *RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Plan:      plan.Name,
		StartedAt: time.Now(),
	}
	logger := s.logger.With("run_id", summary.RunID, "plan", plan.Name)

	ctx, span := s.tracer.Start(ctx, "seeder.apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("seeder.run_id", summary.RunID),
		attribute.String("seeder.plan", plan.Name),
		attribute.Int("seeder.entities", len(plan.Entities)),
		attribute.Int("seeder.edges", plan.EdgeCount()),
	)

	fail := func(err error) (Handles, *RunSummary, error) {
		summary.Duration = time.Since(summary.StartedAt)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "plan run failed",
			"error", err,
			"entities", summary.Entities,
			"edges", summary.Edges,
		)
		return nil, summary, err
	}

	if err := plan.Validate(); err != nil {
		return fail(err)
	}

	logger.InfoContext(ctx, "applying plan",
		"entities", len(plan.Entities),
		"edges", plan.EdgeCount(),
		"clear", opts.Clear,
	)

	if opts.Clear {
		if err := s.ClearAll(ctx); err != nil {
			return fail(err)
		}
		summary.Cleared = true
	}

	if opts.EnsureUniqueKeys {
		type labelKey struct{ label, key string }
		done := make(map[labelKey]bool)
		for _, e := range plan.Entities {
			lk := labelKey{e.Label, e.Key}
			if done[lk] {
				continue
			}
			done[lk] = true
			ok, err := s.EnsureUniqueKey(ctx, e.Label, e.Key)
			if err != nil {
				return fail(err)
			}
			if ok {
				summary.UniqueKeys++
			}
		}
	}

	handles := make(Handles, len(plan.Entities))
	for _, e := range plan.Entities {
		id, err := s.UpsertEntity(ctx, e.Label, e.Key, e.Value, e.Properties)
		if err != nil {
			return fail(fmt.Errorf("entity %q: %w", e.Ref, err))
		}
		handles[e.Ref] = id
		summary.Entities++
	}

	for _, r := range plan.Relationships {
		from, to := handles[r.From], handles[r.To]
		if _, err := s.CreateRelationship(ctx, from, r.Label, to, r.Properties); err != nil {
			return fail(fmt.Errorf("relationship %s -[%s]-> %s: %w", r.From, r.Label, r.To, err))
		}
		summary.Edges++

		if r.Symmetric {
			if _, err := s.CreateRelationship(ctx, to, r.Label, from, r.Properties); err != nil {
				return fail(fmt.Errorf("relationship %s -[%s]-> %s: %w", r.To, r.Label, r.From, err))
			}
			summary.Edges++
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	logger.InfoContext(ctx, "plan applied",
		"entities", summary.Entities,
		"edges", summary.Edges,
		"duration", summary.Duration,
	)
	return handles, summary, nil
}
