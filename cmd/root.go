package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "manuid",
	Short: "Procurement intelligence for pharma supply chains",
	Long:  "Ingests supplier directories, maintains a verified vendor registry with evidence trails, and ranks suppliers for procurement queries over an HTTP API.",
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
