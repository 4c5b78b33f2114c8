package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "stagehand",
		Short:         "Stagehand drives publish pipelines over ordered plugins",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
