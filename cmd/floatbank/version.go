package main

import (
	"fmt"

	"github.com/floatbank/floatbank/internal/api/handlers"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Long:  `Print the version of the floatbank server.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		handlers.Version = Version
		version, commit := handlers.BuildVersion()
		if commit != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "floatbank version %s (commit %s)\n", version, commit)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "floatbank version %s\n", version)
	},
}
