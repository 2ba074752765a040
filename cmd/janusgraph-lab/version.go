package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/infobarbosa/janusgraph-lab/pkg/version"
)

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.formatter(cmd).PrintResult(version.Info(), func(w io.Writer) error {
				_, err := fmt.Fprintln(w, version.String())
				return err
			})
		},
	}
}
