package main

import (
	"os"
	"strings"

	"github.com/aretw0/catena/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Convert a file to text",
	Long: `Runs the file-to-text pipeline: the file name is routed by extension to the
CSV converter or to the text reader and chunker. Without a file, or with
--interactive, one file name is read per line from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, cli.PipelineFileToText, args)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the configured LLM a question",
	Long: `Runs the ask pipeline: the question is sent to the configured LLM with the
configured instructions, retried on failure, and the answer is remembered in
long-term memory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, cli.PipelineAsk, []string{strings.Join(args, " ")})
	},
}

func execute(cmd *cobra.Command, pipeline string, args []string) error {
	opts := baseOptions(cmd)
	opts.Pipeline = pipeline
	if len(args) > 0 {
		opts.Request = args[0]
	}
	opts.JSON, _ = cmd.Flags().GetBool("json")
	opts.Interactive, _ = cmd.Flags().GetBool("interactive")
	opts.Interactive = opts.Interactive || strings.TrimSpace(opts.Request) == ""
	opts.Telemetry, _ = cmd.Flags().GetBool("telemetry")
	opts.Graph, _ = cmd.Flags().GetBool("graph")
	opts.MaxNodes, _ = cmd.Flags().GetInt("max-nodes")
	opts.MaxDuration, _ = cmd.Flags().GetDuration("max-duration")

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	return cli.Execute(ctx, opts, os.Stdin, cmd.OutOrStdout())
}

func init() {
	for _, c := range []*cobra.Command{runCmd, askCmd} {
		rootCmd.AddCommand(c)
		c.Flags().Bool("json", false, "Print the final context as JSON")
		c.Flags().BoolP("interactive", "i", false, "Read one request per line from stdin")
		c.Flags().Bool("telemetry", false, "Record node events in the context")
		c.Flags().Bool("graph", false, "Append the chain diagram with the visited nodes")
		c.Flags().Int("max-nodes", 0, "Override max_nodes")
		c.Flags().Duration("max-duration", 0, "Override max_duration")
	}
}
