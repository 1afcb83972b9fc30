package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fundascout/fundascout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fundascout",
	Short: "House search and upload pipeline",
	Long:  "Searches Funda for houses in configured cities, enriches each hit with postal code, office travel times and a life level score, and upserts the results into a Notion database.",
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
