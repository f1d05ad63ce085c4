package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sealcheck/lmscan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lmscan",
	Short: "Legal Metrology compliance scanner for e-commerce listings",
	Long:  "Extracts mandatory label declarations from scraped product listings, scores them against Legal Metrology packaging rules, and tracks per-manufacturer compliance over time.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
