package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/infobarbosa/janusgraph-lab/cmd/janusgraph-lab/internal"
	"github.com/infobarbosa/janusgraph-lab/internal/graph"
	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// StoreStatus is the output of the status command.
type StoreStatus struct {
	Backend graph.Backend      `json:"backend"`
	URI     string             `json:"uri"`
	Health  types.HealthStatus `json:"health"`
}

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connectivity to the graph store",
		Long: `Open a connection to the configured graph store and run a trivial query.
Exits with status 12 when the store cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: c.runStatus,
	}
}

func (c *cli) runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cc := c.cfg.Store.ClientConfig()

	status := StoreStatus{Backend: cc.Backend, URI: cc.URI}

	conn, err := c.connect(ctx)
	if err != nil {
		status.Health = types.Unhealthy(err.Error())
	} else {
		defer c.disconnect(ctx, conn)
		status.Health = conn.Health(ctx)
	}

	out := c.formatter(cmd)
	if err := out.PrintResult(status, func(io.Writer) error {
		if status.Health.IsHealthy() {
			return out.PrintSuccess(status.String())
		}
		return out.PrintError(status.String())
	}); err != nil {
		return err
	}

	if !status.Health.IsHealthy() {
		return internal.NewCLIError(internal.ExitStoreUnavailable, "graph store is unhealthy")
	}
	return nil
}

func (s StoreStatus) String() string {
	line := fmt.Sprintf("%s at %s: %s", s.Backend, s.URI, s.Health.State)
	if s.Health.Message != "" {
		line += " (" + s.Health.Message + ")"
	}
	return line
}
