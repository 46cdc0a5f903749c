// Package cli holds the village-api commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/village-api/pkg/config"
	"github.com/noah-isme/village-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "village-api",
	Short: "Classroom village ledger service",
	Long: `village-api keeps one economy per class: villagers with bank ledgers,
daily task logs and statuses, a shop and a payroll. Configuration is read
from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}
