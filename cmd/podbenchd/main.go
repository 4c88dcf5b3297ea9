package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"podbench/internal/config"
	"podbench/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:           "podbenchd",
		Short:         "Run the podbench daemon",
		Long:          "podbenchd hosts the episode catalog, the stage pipeline, and the HTTP API.\nIt runs in the foreground until it receives SIGINT or SIGTERM.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, _, err := config.Load(configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&development, "development", false, "Enable development logging (source locations)")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
