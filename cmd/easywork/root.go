package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	workers int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "easywork",
		Short:         "easywork assembles and runs typed dataflow graphs from a manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().IntVarP(&flags.workers, "workers", "w", 0, "Concurrency cap for method invocations (0 selects NumCPU)")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
