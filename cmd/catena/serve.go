package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/catena/internal/cli"
	httpAdapter "github.com/aretw0/catena/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve [pipeline]",
	Short: "Start the HTTP server",
	Long: `Serves a pipeline ("file-to-text" by default) over HTTP: POST /run, GET /graph,
GET /events (SSE), GET /healthz, GET /metrics (Prometheus) and the OpenAPI
document at GET /openapi.yaml (Swagger UI at GET /swagger).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd)
		port, _ := cmd.Flags().GetString("port")
		name := cli.PipelineFileToText
		if len(args) > 0 {
			name = args[0]
		}

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.LogLevel, opts.Debug)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		factory, err := cli.NewFactory(cfg, cli.FactoryOptions{Dir: opts.Dir, Debug: opts.Debug, Registry: reg}, logger)
		if err != nil {
			return err
		}
		defer factory.Close()

		// Fail fast on a pipeline that cannot be composed.
		if _, err := factory.Build(name); err != nil {
			return err
		}

		streams := httpAdapter.NewStreamManager()
		srv := &http.Server{
			Addr: ":" + port,
			Handler: httpAdapter.NewHandler(factory.For(name),
				httpAdapter.WithLogger(logger),
				httpAdapter.WithStreams(streams),
				httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}
		// Shutdown does not cancel request contexts; SSE streams must be ended.
		srv.RegisterOnShutdown(streams.CloseAll)

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("Starting Catena Server", "addr", srv.Addr, "pipeline", name, "dir", opts.Dir)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Catena Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
