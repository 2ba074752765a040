package harness

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Kind selects the traversal a Check runs.
type Kind string

const (
	KindCountVertices     Kind = "count_vertices"
	KindCountEdges        Kind = "count_edges"
	KindListByLabel       Kind = "list_by_label"
	KindFindIncoming      Kind = "find_incoming"
	KindFindIncomingMulti Kind = "find_incoming_multi"
	KindFindPaths         Kind = "find_paths"
)

// Check is one verification traversal. Only the fields its Kind reads need
// to be set.
type Check struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title"`
	Kind  Kind   `yaml:"kind" json:"kind"`

	// list_by_label
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
	Property string `yaml:"property,omitempty" json:"property,omitempty"`

	// find_incoming, find_incoming_multi; also the path source
	Target         graph.EntityKey `yaml:"target,omitempty" json:"target,omitempty"`
	EdgeLabels     []string        `yaml:"edge_labels,omitempty" json:"edge_labels,omitempty"`
	ResultProperty string          `yaml:"result_property,omitempty" json:"result_property,omitempty"`

	// find_paths
	To      graph.EntityKey `yaml:"to,omitempty" json:"to,omitempty"`
	MaxHops int             `yaml:"max_hops,omitempty" json:"max_hops,omitempty"`

	Expect *Expectation `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expectation is the outcome a Check should observe. Values compare as an
// unordered multiset.
type Expectation struct {
	Count  *int64 `yaml:"count,omitempty" json:"count,omitempty"`
	Values []any  `yaml:"values,omitempty" json:"values,omitempty"`
	Paths  *int   `yaml:"paths,omitempty" json:"paths,omitempty"`
}

// Battery is an ordered list of checks.
type Battery struct {
	Name   string  `yaml:"name" json:"name"`
	Checks []Check `yaml:"checks" json:"checks"`
}

// WithMaxHops returns a copy of b whose path checks use maxHops. A
// non-positive maxHops leaves b unchanged.
func (b Battery) WithMaxHops(maxHops int) Battery {
	if maxHops <= 0 {
		return b
	}
	out := Battery{Name: b.Name, Checks: slices.Clone(b.Checks)}
	for i := range out.Checks {
		if out.Checks[i].Kind == KindFindPaths {
			out.Checks[i].MaxHops = maxHops
		}
	}
	return out
}

// Status is the outcome of one check.
type Status string

const (
	StatusOK       Status = "ok"
	StatusMismatch Status = "mismatch"
	StatusError    Status = "error"
)

// CheckResult records what one check observed.
type CheckResult struct {
	Name     string        `json:"name"`
	Title    string        `json:"title"`
	Kind     Kind          `json:"kind"`
	Status   Status        `json:"status"`
	Count    *int64        `json:"count,omitempty"`
	Values   []any         `json:"values,omitempty"`
	Paths    []graph.Path  `json:"paths,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Code     string        `json:"code,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the outcome of a battery run.
type Report struct {
	RunID     string        `json:"run_id"`
	Battery   string        `json:"battery"`
	Backend   graph.Backend `json:"backend"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Results   []CheckResult `json:"results"`
}

// Failed reports whether any check errored or missed its expectation.
func (r *Report) Failed() bool {
	return slices.ContainsFunc(r.Results, func(c CheckResult) bool {
		return c.Status != StatusOK
	})
}

// Tally counts results by status.
func (r *Report) Tally() map[Status]int {
	out := make(map[Status]int, 3)
	for _, c := range r.Results {
		out[c.Status]++
	}
	return out
}

// RunBattery runs every check in order. A failing check is recorded in the
// report and the run continues; only cancellation of ctx ends it early, in
// which case the partial report is returned with ctx's error.
func (h *Harness) RunBattery(ctx context.Context, b Battery) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Battery:   b.Name,
		Backend:   h.conn.Backend(),
		StartedAt: time.Now(),
		Results:   make([]CheckResult, 0, len(b.Checks)),
	}
	logger := h.logger.With("run_id", report.RunID, "battery", b.Name)

	for _, c := range b.Checks {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(report.StartedAt)
			return report, err
		}

		res := h.runCheck(ctx, c)
		report.Results = append(report.Results, res)

		if res.Status == StatusOK {
			logger.DebugContext(ctx, "check passed", "check", c.Name, "duration", res.Duration)
		} else {
			logger.WarnContext(ctx, "check failed", "check", c.Name, "status", res.Status, "detail", res.Detail)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	logger.InfoContext(ctx, "battery finished", "checks", len(report.Results), "failed", report.Failed())
	return report, nil
}

func (h *Harness) runCheck(ctx context.Context, c Check) CheckResult {
	start := time.Now()
	res := CheckResult{Name: c.Name, Title: c.Title, Kind: c.Kind, Status: StatusOK}

	var err error
	switch c.Kind {
	case KindCountVertices, KindCountEdges:
		var n int64
		if c.Kind == KindCountVertices {
			n, err = h.CountVertices(ctx)
		} else {
			n, err = h.CountEdges(ctx)
		}
		if err == nil {
			res.Count = &n
		}
	case KindListByLabel:
		res.Values, err = h.ListByLabel(ctx, c.Label, c.Property)
	case KindFindIncoming:
		if len(c.EdgeLabels) != 1 {
			err = types.NewError(types.INVALID_ARGUMENT,
				fmt.Sprintf("check %q needs exactly one edge label", c.Name))
			break
		}
		res.Values, err = h.FindIncoming(ctx, c.Target, c.EdgeLabels[0], c.ResultProperty)
	case KindFindIncomingMulti:
		res.Values, err = h.FindIncomingMulti(ctx, c.Target, c.EdgeLabels, c.ResultProperty)
	case KindFindPaths:
		res.Paths, err = h.FindPaths(ctx, c.Target, c.To, c.MaxHops)
	default:
		err = types.NewError(types.INVALID_ARGUMENT, fmt.Sprintf("unknown check kind %q", c.Kind))
	}
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = StatusError
		res.Detail = err.Error()
		res.Code = string(types.CodeOf(err))
		return res
	}

	if msg := c.Expect.mismatch(res); msg != "" {
		res.Status = StatusMismatch
		res.Detail = msg
	}
	return res
}

// mismatch describes how res differs from e, or returns "" when it does not.
func (e *Expectation) mismatch(res CheckResult) string {
	if e == nil {
		return ""
	}
	if e.Count != nil {
		if res.Count == nil {
			return fmt.Sprintf("expected count %d, got none", *e.Count)
		}
		if *res.Count != *e.Count {
			return fmt.Sprintf("expected count %d, got %d", *e.Count, *res.Count)
		}
	}
	if e.Values != nil && !sameMultiset(e.Values, res.Values) {
		return fmt.Sprintf("expected values %v, got %v", e.Values, res.Values)
	}
	if e.Paths != nil && len(res.Paths) != *e.Paths {
		return fmt.Sprintf("expected %d paths, got %d", *e.Paths, len(res.Paths))
	}
	return ""
}

func sameMultiset(want, got []any) bool {
	if len(want) != len(got) {
		return false
	}
	counts := make(map[string]int, len(want))
	for _, v := range want {
		counts[fmt.Sprint(v)]++
	}
	for _, v := range got {
		k := fmt.Sprint(v)
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}
