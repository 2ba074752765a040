package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/infobarbosa/janusgraph-lab/internal/dataset"
	"github.com/infobarbosa/janusgraph-lab/internal/seeder"
)

type seedOptions struct {
	noClear   bool
	dataset   string
	uniqueKey bool
}

func (c *cli) newSeedCmd() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the demonstration graph",
		Long: `Wipe the graph and write the demonstration dataset: ten pessoa and five
empresa vertices joined by fourteen relationships. The symmetric marriage
is written as two directed edges.

Use --dataset to write a YAML plan instead of the embedded one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSeed(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noClear, "no-clear", false, "Keep existing vertices and edges")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "Path to a YAML dataset plan (default: embedded demo)")
	cmd.Flags().BoolVar(&opts.uniqueKey, "ensure-unique-keys", true, "Create uniqueness constraints where the backend supports them")

	return cmd
}

func (c *cli) runSeed(cmd *cobra.Command, opts seedOptions) error {
	ctx := cmd.Context()

	path := opts.dataset
	if path == "" {
		path = c.cfg.Seed.Dataset
	}
	plan, err := loadPlan(path)
	if err != nil {
		return err
	}

	applyOpts := seeder.ApplyOptions{
		Clear:            c.cfg.Seed.ClearFirst && !opts.noClear,
		EnsureUniqueKeys: c.cfg.Seed.EnsureUniqueKeys,
	}
	if cmd.Flags().Changed("ensure-unique-keys") {
		applyOpts.EnsureUniqueKeys = opts.uniqueKey
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer c.disconnect(ctx, conn)

	s, err := seeder.New(conn,
		seeder.WithLogger(c.logger),
		seeder.WithTracer(c.tp.Tracer(instrumentationName)),
	)
	if err != nil {
		return err
	}

	_, summary, err := s.Apply(ctx, plan, applyOpts)
	if err != nil {
		return err
	}

	out := c.formatter(cmd)
	return out.PrintResult(summary, func(io.Writer) error {
		return out.PrintSuccess(summaryLine(summary))
	})
}

func loadPlan(path string) (*seeder.Plan, error) {
	if path == "" {
		return dataset.Demo()
	}
	return seeder.LoadPlanFile(path)
}

func summaryLine(s *seeder.RunSummary) string {
	cleared := "kept existing data"
	if s.Cleared {
		cleared = "graph cleared"
	}
	return fmt.Sprintf("Seeded %q: %d entities, %d edges (%s, %d unique keys) in %s",
		s.Plan, s.Entities, s.Edges, cleared, s.UniqueKeys, s.Duration.Round(time.Millisecond))
}
