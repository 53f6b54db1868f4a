package main

import (
	"fmt"

	"github.com/aretw0/catena/internal/cli"
	"github.com/aretw0/catena/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [pipeline]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes a pipeline ("file-to-text" by default) as the MCP tool run_pipeline
and its chain diagram as the resource catena://graph.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd)
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		name := cli.PipelineFileToText
		if len(args) > 0 {
			name = args[0]
		}

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		// Logs go to stderr so that they never corrupt JSON-RPC on stdout.
		logger, err := cli.NewLogger(cfg.LogLevel, opts.Debug)
		if err != nil {
			return err
		}
		factory, err := cli.NewFactory(cfg, cli.FactoryOptions{Dir: opts.Dir, Debug: opts.Debug}, logger)
		if err != nil {
			return err
		}
		defer factory.Close()

		srv := mcp.NewServer(factory.For(name), logger)

		switch transport {
		case "stdio":
			logger.Info("Starting Catena MCP Server (Stdio)", "pipeline", name)
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			logger.Info("Starting Catena MCP Server (SSE)", "port", port, "pipeline", name)
			return srv.ServeSSE(ctx, port)
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
