package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/manuid/manuid/internal/ingest"
	"github.com/manuid/manuid/internal/vendor"
)

var (
	ingestURL        string
	ingestSourceName string
	ingestQuery      string
	ingestRole       string
	ingestDryRun     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a supplier directory page into the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if ingestURL == "" || ingestQuery == "" {
			return eris.New("--url and --product-type are required")
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return err
		}

		resp, err := newPipeline(store).Ingest(ctx, ingest.Request{
			SourceURL:        ingestURL,
			SourceName:       ingestSourceName,
			ProductTypeQuery: ingestQuery,
			Role:             vendor.LinkRole(ingestRole),
			DryRun:           ingestDryRun,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal response")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "source URL to ingest (required)")
	ingestCmd.Flags().StringVar(&ingestSourceName, "source-name", "", "display name for the source")
	ingestCmd.Flags().StringVar(&ingestQuery, "product-type", "", "product-type query to attach vendors to (required)")
	ingestCmd.Flags().StringVar(&ingestRole, "role", "", "vendor role for created links")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "extract and report without writing")
	rootCmd.AddCommand(ingestCmd)
}
