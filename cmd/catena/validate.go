package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/catena/internal/cli"
	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/spf13/cobra"
)

// offline stands in for the LLM when a pipeline is only composed, never run.
func offline(context.Context, domain.LLMRequest) (string, error) {
	return "", errors.New("llm not available offline")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config file",
	Long:  `Loads the config file and composes every pipeline with its node settings, reporting unknown node ids and rejected settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd)
		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		factory, err := cli.NewFactory(cfg, cli.FactoryOptions{Dir: opts.Dir, LLM: offline}, logging.NewNop())
		if err != nil {
			return err
		}
		defer factory.Close()

		if unknown := cli.UnknownNodes(cfg); len(unknown) > 0 {
			return fmt.Errorf("settings for unknown nodes %v: %w", unknown, domain.ErrNotFound)
		}
		for _, name := range []string{cli.PipelineFileToText, cli.PipelineAsk} {
			agent, err := factory.Build(name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := agent.Context().Validate(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", opts.ConfigPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
