package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infobarbosa/janusgraph-lab/cmd/janusgraph-lab/internal"
)

// GlobalFlags holds the persistent flags of the root command.
type GlobalFlags struct {
	Verbose      bool
	OutputFormat string
	ConfigFile   string
}

// RegisterGlobalFlags registers persistent flags on cmd.
func RegisterGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: ~/.janusgraph-lab/config.yaml)")
}

// Validate checks flag values that cobra cannot.
func (f *GlobalFlags) Validate() error {
	switch internal.OutputFormat(f.OutputFormat) {
	case internal.FormatText, internal.FormatJSON:
		return nil
	default:
		return internal.NewCLIError(internal.ExitConfigError,
			fmt.Sprintf("invalid --output %q (want text or json)", f.OutputFormat))
	}
}

// Format returns the parsed output format.
func (f *GlobalFlags) Format() internal.OutputFormat {
	if f.OutputFormat == string(internal.FormatJSON) {
		return internal.FormatJSON
	}
	return internal.FormatText
}
