package main

import (
	"fmt"

	"github.com/aretw0/catena/internal/cli"
	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [pipeline]",
	Short: "Export the chain visualization",
	Long:  `Builds a pipeline ("file-to-text" by default, or "ask") and outputs a Mermaid diagram (graph TD) of its chain.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd)
		name := cli.PipelineFileToText
		if len(args) > 0 {
			name = args[0]
		}

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		factory, err := cli.NewFactory(cfg, cli.FactoryOptions{Dir: opts.Dir, LLM: offline}, logging.NewNop())
		if err != nil {
			return err
		}
		defer factory.Close()

		agent, err := factory.Build(name)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(agent.Graph(), graph.Options{
			Root:     agent.Root(),
			Fallback: agent.ErrorHandler(),
		}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
