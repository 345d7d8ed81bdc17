// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/search"
	"github.com/pdiddy/litsweep/pkg/types"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep the top papers of each source",
	Long: `Filter keeps the best --top-n papers of every source in a search result:
the most cited for OpenAlex and Semantic Scholar, the most recent for arXiv,
which reports no citation counts.`,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringP("input", "i", "", "search result JSON (records grouped by source)")
	filterCmd.Flags().Int("top-n", 20, "papers to keep per source")
	filterCmd.Flags().StringP("output", "o", "", "output JSON file")
	requireFlags(filterCmd, "input", "output")

	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	topN, _ := cmd.Flags().GetInt("top-n")

	bySource, err := artifact.ReadBySource(input)
	if err != nil {
		return err
	}
	filtered := search.FilterTopN(bySource, topN)
	if err := artifact.WriteBySource(output, filtered); err != nil {
		return err
	}

	for _, src := range types.OrderedSources(filtered) {
		fmt.Fprintf(os.Stdout, "  %s: %d -> %d\n", src, len(bySource[src]), len(filtered[src]))
	}
	fmt.Fprintf(os.Stdout, "Kept %d of %d papers\n", filtered.Total(), bySource.Total())
	return nil
}
