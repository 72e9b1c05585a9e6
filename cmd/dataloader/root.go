package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dataloader",
		Short:         "Parse recruiting data files and push them through the gateway import endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newImportCmd())

	return cmd
}

// Execute runs the root command and converts the returned error into a
// process exit code.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}
