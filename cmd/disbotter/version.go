package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/disbotter/disbotter"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of disbotter",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "disbotter version %s\n", strings.TrimSpace(disbotter.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
