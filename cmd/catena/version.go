package main

import (
	"fmt"

	"github.com/aretw0/catena"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of catena",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "catena version %s\n", catena.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
