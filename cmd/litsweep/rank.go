// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/rank"
	"github.com/pdiddy/litsweep/pkg/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank papers by relevance to a query and citation impact",
	Long: `Rank scores every paper against --query and blends that similarity with
log-scaled citation impact. Input grouped by source is ranked per source, so
each source keeps its own top --top-k; a flat list is ranked as one.

The lexical scorer works offline. The ollama scorer embeds texts with the
model configured under rank.ollama_model.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringP("input", "i", "", "input JSON (flat list or grouped by source)")
	rankCmd.Flags().String("query", "", "research question to rank against")
	rankCmd.Flags().Int("top-k", 0, "papers to keep (per source for grouped input; default from config)")
	rankCmd.Flags().String("scorer", "", "similarity scorer: lexical or ollama (default from config)")
	rankCmd.Flags().Float64("weight", -1, "semantic weight in [0, 1] (default from config)")
	rankCmd.Flags().StringP("output", "o", "", "output JSON file")
	requireFlags(rankCmd, "input", "query", "output")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	query, _ := cmd.Flags().GetString("query")

	rcfg := cfg.Rank
	if s, _ := cmd.Flags().GetString("scorer"); s != "" {
		rcfg.Scorer = types.ScorerKind(s)
	}
	if w, _ := cmd.Flags().GetFloat64("weight"); w >= 0 {
		rcfg.SemanticWeight = w
	}
	if k, _ := cmd.Flags().GetInt("top-k"); k > 0 {
		rcfg.TopKPerSource = k
	}

	scorer, err := rank.NewScorer(rcfg)
	if err != nil {
		return err
	}
	opts := rank.OptionsFromConfig(rcfg)

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if c.Shape == artifact.ShapeBySource {
		ranked, err := rank.RankPerSource(ctx, c.BySource, query, scorer, opts)
		if err != nil {
			return err
		}
		if err := artifact.WriteBySource(output, ranked); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Ranked %d papers, kept %d\n", c.BySource.Total(), ranked.Total())
		return nil
	}

	ranked, err := rank.Rank(ctx, c.Records, query, scorer, opts)
	if err != nil {
		return err
	}
	if err := artifact.WriteRecords(output, ranked); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Ranked %d papers, kept %d\n", len(c.Records), len(ranked))
	return nil
}
