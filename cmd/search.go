package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/manuid/manuid/internal/search"
	"github.com/manuid/manuid/internal/vendor"
)

var (
	searchQuery         string
	searchCountry       string
	searchRegion        string
	searchCerts         []string
	searchRole          string
	searchLimit         int
	searchMinConfidence float64
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Rank registered vendors for a product-type query",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if searchQuery == "" {
			return eris.New("--query is required")
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		resp, err := search.New(store).Search(ctx, search.Request{
			ProductTypeQuery: searchQuery,
			Country:          searchCountry,
			Region:           searchRegion,
			Certifications:   searchCerts,
			Role:             vendor.LinkRole(searchRole),
			Status:           vendor.StatusActive,
			MinConfidence:    searchMinConfidence,
			Limit:            searchLimit,
		})
		if err != nil {
			return err
		}

		if resp.ResolvedProductType != nil {
			fmt.Printf("Product type: %s (%s)\n", resp.ResolvedProductType.Name, resp.ResolvedProductType.Slug)
		} else {
			fmt.Printf("No taxonomy match; searched for %q\n", resp.NormalizedQuery)
		}
		for i, res := range resp.Results {
			fmt.Printf("%2d. %-40s %.4f  %s\n", i+1, res.Vendor.Name, res.Score, res.Vendor.HQCountry)
			for _, reason := range res.Reasons {
				fmt.Printf("      - %s\n", reason)
			}
		}
		if len(resp.Results) == 0 {
			fmt.Println("No vendors matched.")
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchQuery, "query", "", "product-type query (required)")
	searchCmd.Flags().StringVar(&searchCountry, "country", "", "filter by HQ country")
	searchCmd.Flags().StringVar(&searchRegion, "region", "", "filter by served region")
	searchCmd.Flags().StringSliceVar(&searchCerts, "cert", nil, "required certification (repeatable)")
	searchCmd.Flags().StringVar(&searchRole, "role", "", "filter by link role")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default 25)")
	searchCmd.Flags().Float64Var(&searchMinConfidence, "min-confidence", 0, "minimum confidence score")
	rootCmd.AddCommand(searchCmd)
}
