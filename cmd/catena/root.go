package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/catena/internal/cli"
	"github.com/aretw0/catena/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "catena",
	Short: "Catena runs sequential agent pipelines",
	Long: `Catena runs chains of nodes sharing one context: a file-to-text converter
with extension routing, and a question answering chain backed by an LLM.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// A run that recorded an error exits with status 2; any other failure with 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, cli.ErrRunFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the catena config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("dir", ".", "Directory where requested files are resolved")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every lifecycle event to stderr")
}

// baseOptions reads the persistent flags.
func baseOptions(cmd *cobra.Command) cli.RunOptions {
	cfgPath, _ := cmd.Flags().GetString("config")
	dir, _ := cmd.Flags().GetString("dir")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.RunOptions{ConfigPath: cfgPath, Dir: dir, Debug: debug}
}
