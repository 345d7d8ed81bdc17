// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/dedup"
	"github.com/pdiddy/litsweep/pkg/types"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate papers across sources",
	Long: `Dedupe merges records grouped by source into one list, keeping the first copy
of each paper in source order (OpenAlex, Semantic Scholar, arXiv). Papers
match on normalized DOI, then on title, year, and first author. With
--aggressive, titles at least --threshold similar also match.

A flat list is deduplicated in place.`,
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().StringP("input", "i", "", "input JSON (grouped by source or flat list)")
	dedupeCmd.Flags().StringP("output", "o", "", "output JSON file")
	dedupeCmd.Flags().Bool("aggressive", false, "also match on fuzzy title similarity")
	dedupeCmd.Flags().Float64("threshold", 0, "fuzzy title similarity threshold (default from config)")
	dedupeCmd.Flags().String("report", "", "write the duplicate map to this JSON file")
	requireFlags(dedupeCmd, "input", "output")

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	report, _ := cmd.Flags().GetString("report")

	dcfg := cfg.Dedup
	if cmd.Flags().Changed("aggressive") {
		dcfg.Aggressive, _ = cmd.Flags().GetBool("aggressive")
	}
	if cmd.Flags().Changed("threshold") {
		dcfg.FuzzyThreshold, _ = cmd.Flags().GetFloat64("threshold")
	}

	d, err := dedup.FromConfig(dcfg)
	if err != nil {
		return err
	}

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}

	w := os.Stdout
	var unique []types.Record
	if c.Shape == artifact.ShapeBySource {
		fmt.Fprintln(w, "Papers before deduplication:")
		printSourceCounts(w, countBySource(c.BySource), c.BySource.Total(), "Total")

		var counts map[types.Source]int
		unique, counts = d.DeduplicateCrossSource(c.BySource, dcfg.Aggressive)

		fmt.Fprintln(w, "\nPapers after deduplication:")
		printSourceCounts(w, counts, len(unique), "Total unique")
	} else {
		var removed int
		unique, removed = d.Deduplicate(c.Records, dcfg.Aggressive)
		fmt.Fprintf(w, "Papers: %d -> %d (%d removed)\n", len(c.Records), len(unique), removed)
	}

	stats := d.Stats()
	fmt.Fprintln(w, "\nDeduplication statistics:")
	fmt.Fprintf(w, "  Unique DOIs found:     %d\n", stats.UniqueDOIs)
	fmt.Fprintf(w, "  Unique composite keys: %d\n", stats.UniqueCompositeKeys)
	fmt.Fprintf(w, "  Duplicates removed:    %d\n", stats.DuplicatesFound)

	if err := artifact.WriteRecords(output, unique); err != nil {
		return err
	}
	if report != "" {
		if err := artifact.WriteJSON(report, d.Duplicates()); err != nil {
			return err
		}
	}
	return nil
}

func countBySource(bySource types.BySource) map[types.Source]int {
	counts := make(map[types.Source]int, len(bySource))
	for src, records := range bySource {
		counts[src] = len(records)
	}
	return counts
}

func printSourceCounts(w io.Writer, counts map[types.Source]int, total int, label string) {
	for _, src := range types.OrderedSources(counts) {
		fmt.Fprintf(w, "  %s: %d\n", src, counts[src])
	}
	fmt.Fprintf(w, "  %s: %d\n", label, total)
}
