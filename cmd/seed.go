package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/manuid/manuid/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the default taxonomy, demo vendors, and source catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if err := seed.Run(ctx, store); err != nil {
			return err
		}
		zap.L().Info("seed complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
