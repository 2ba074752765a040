package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/infobarbosa/janusgraph-lab/cmd/janusgraph-lab/internal"
	"github.com/infobarbosa/janusgraph-lab/internal/dataset"
	"github.com/infobarbosa/janusgraph-lab/internal/harness"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

type verifyOptions struct {
	maxHops int
	battery string
}

func (c *cli) newVerifyCmd() *cobra.Command {
	var opts verifyOptions

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the verification battery against the seeded graph",
		Long: `Run read-only traversals against the graph and compare each result with
its expectation: vertex and edge counts, listings by label, incoming
neighbours and bounded path searches.

Exits with status 2 when any check mismatches or fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerify(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.maxHops, "max-hops", 0, "Override the hop bound of path checks")
	cmd.Flags().StringVar(&opts.battery, "battery", "", "Path to a YAML check battery (default: embedded demo)")

	return cmd
}

func (c *cli) runVerify(cmd *cobra.Command, opts verifyOptions) error {
	ctx := cmd.Context()

	path := opts.battery
	if path == "" {
		path = c.cfg.Verify.Battery
	}
	battery, err := loadBattery(path)
	if err != nil {
		return err
	}

	maxHops := c.cfg.Verify.MaxHops
	if cmd.Flags().Changed("max-hops") {
		if opts.maxHops < 1 {
			return internal.NewCLIError(internal.ExitInvalidArgument, "--max-hops must be at least 1")
		}
		maxHops = opts.maxHops
	}
	battery = battery.WithMaxHops(maxHops)

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer c.disconnect(ctx, conn)

	h, err := harness.New(conn, harness.WithLogger(c.logger))
	if err != nil {
		return err
	}

	report, runErr := h.RunBattery(ctx, battery)
	if report != nil {
		err := c.formatter(cmd).PrintResult(report, func(w io.Writer) error {
			return internal.WriteReport(w, report)
		})
		if err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if report.Failed() {
		tally := report.Tally()
		return internal.NewCLIError(internal.ExitVerifyFailed,
			fmt.Sprintf("%d of %d checks failed", tally[harness.StatusMismatch]+tally[harness.StatusError], len(report.Results)))
	}
	return nil
}

func loadBattery(path string) (harness.Battery, error) {
	if path == "" {
		return dataset.DemoBattery()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return harness.Battery{}, types.WrapError(types.DATASET_LOAD_FAILED,
			fmt.Sprintf("failed to read battery %s", path), err)
	}
	return dataset.LoadBattery(data)
}
