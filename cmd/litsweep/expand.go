// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/expand"
	"github.com/pdiddy/litsweep/internal/search"
	"github.com/pdiddy/litsweep/pkg/types"
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Grow a collection with the papers that cite it",
	Long: `Expand fetches the papers citing each seed from OpenAlex and Semantic
Scholar, drops those already in the collection, and appends the rest after
the seeds. --max-total caps the result and is split evenly across sources.`,
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().StringP("input", "i", "", "seed papers JSON (flat list or grouped by source)")
	expandCmd.Flags().StringP("output", "o", "", "output JSON file")
	expandCmd.Flags().Int("max-total", 0, "maximum papers after expansion (default from config)")
	expandCmd.Flags().Int("per-paper-limit", 0, "citing papers fetched per seed (default from config)")
	expandCmd.Flags().Int("max-seeds", 0, "seeds expanded per source (default from config)")
	expandCmd.Flags().StringSlice("sources", nil, "citation sources (default from config)")
	expandCmd.Flags().Bool("aggressive", false, "also match duplicates on fuzzy title similarity")
	requireFlags(expandCmd, "input", "output")

	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	ecfg := cfg.Expand
	if v, _ := cmd.Flags().GetInt("max-total"); v > 0 {
		ecfg.MaxTotal = v
	}
	if v, _ := cmd.Flags().GetInt("per-paper-limit"); v > 0 {
		ecfg.PerPaperLimit = v
	}
	if v, _ := cmd.Flags().GetInt("max-seeds"); v > 0 {
		ecfg.MaxSeeds = v
	}
	sources, err := sourcesFlag(cmd, ecfg.Sources)
	if err != nil {
		return err
	}
	dcfg := cfg.Dedup
	if cmd.Flags().Changed("aggressive") {
		dcfg.Aggressive, _ = cmd.Flags().GetBool("aggressive")
	}

	citers, err := newCiters(sources)
	if err != nil {
		return err
	}

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}
	seeds := c.All()

	res, err := expand.Expand(cmd.Context(), seeds, citers, expand.OptionsFromConfig(ecfg, dcfg))
	if err != nil {
		return err
	}
	if err := artifact.WriteRecords(output, res.Records); err != nil {
		return err
	}

	w := os.Stdout
	fmt.Fprintf(w, "Seeds: %d\n", res.Seeds)
	for _, src := range types.OrderedSources(res.PerCiter) {
		fmt.Fprintf(w, "  %s: %d citing papers\n", src, res.PerCiter[src])
	}
	fmt.Fprintf(w, "Fetched: %d, new: %d, total: %d\n", res.Fetched, res.NewPapers, len(res.Records))
	return nil
}

// newCiters builds the search backends for sources and keeps those that can
// list citing papers.
func newCiters(sources []types.Source) ([]expand.Citer, error) {
	scfg := cfg.Search
	scfg.Sources = sources
	backends, err := search.NewBackends(scfg)
	if err != nil {
		return nil, err
	}
	var citers []expand.Citer
	for _, b := range backends {
		if c, ok := b.(expand.Citer); ok {
			citers = append(citers, c)
		}
	}
	if len(citers) == 0 {
		return nil, eris.Errorf("none of the sources %v can list citing papers", sources)
	}
	return citers, nil
}
