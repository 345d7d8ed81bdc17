// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/internal/search"
	"github.com/pdiddy/litsweep/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search OpenAlex, Semantic Scholar, and arXiv in parallel",
	Long: `Search queries every configured source concurrently and writes the records
grouped by source. A failing source is reported and left empty; the others
still complete. Use --save to keep the query so it can be re-run with
--from-query.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "search text")
	searchCmd.Flags().String("from-query", "", "re-run a saved query file")
	searchCmd.Flags().Int("year-from", 0, "earliest publication year")
	searchCmd.Flags().Int("year-to", 0, "latest publication year")
	searchCmd.Flags().Int("min-citations", 0, "minimum citation count (OpenAlex, Semantic Scholar)")
	searchCmd.Flags().StringSlice("categories", nil, "arXiv categories, e.g. cs.CV,cs.LG")
	searchCmd.Flags().String("venue", "", "venue filter (Semantic Scholar)")
	searchCmd.Flags().StringSlice("fields-of-study", nil, "fields of study (Semantic Scholar)")
	searchCmd.Flags().Int("max-results", 0, "maximum results per source (default from config)")
	searchCmd.Flags().StringSlice("sources", nil, "sources to query (default from config)")
	searchCmd.Flags().StringP("output", "o", "", "output JSON file")
	searchCmd.Flags().String("save", "", "write the query and result summary to this YAML file")
	requireFlags(searchCmd, "output")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, sources, err := searchQueryFromFlags(cmd)
	if err != nil {
		return err
	}

	scfg := cfg.Search
	scfg.Sources = sources
	backends, err := search.NewBackends(scfg)
	if err != nil {
		return err
	}

	out, err := search.SearchAll(cmd.Context(), query, backends)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if err := artifact.WriteBySource(output, out.BySource); err != nil {
		return err
	}
	search.PrintSummary(out, os.Stdout)

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := search.WriteQueryFile(savePath, search.NewQueryFile(query, sources, output, out)); err != nil {
			return err
		}
	}
	if len(out.BackendErrors) == len(backends) {
		return eris.New("every source failed")
	}
	return nil
}

// searchQueryFromFlags builds the query from a saved file or from flags,
// with config defaults for anything left unset.
func searchQueryFromFlags(cmd *cobra.Command) (search.Query, []types.Source, error) {
	var q search.Query
	var saved []types.Source

	if path, _ := cmd.Flags().GetString("from-query"); path != "" {
		qf, err := search.ReadQueryFile(path)
		if err != nil {
			return q, nil, err
		}
		q, err = qf.Query.ToQuery()
		if err != nil {
			return q, nil, err
		}
		saved = qf.Query.Sources
	}

	flags := cmd.Flags()
	if flags.Changed("query") {
		q.Text, _ = flags.GetString("query")
	}
	if flags.Changed("year-from") {
		q.YearFrom, _ = flags.GetInt("year-from")
	}
	if flags.Changed("year-to") {
		q.YearTo, _ = flags.GetInt("year-to")
	}
	if flags.Changed("min-citations") {
		q.MinCitations, _ = flags.GetInt("min-citations")
	}
	if flags.Changed("categories") {
		q.Categories, _ = flags.GetStringSlice("categories")
	}
	if flags.Changed("venue") {
		q.Venue, _ = flags.GetString("venue")
	}
	if flags.Changed("fields-of-study") {
		q.FieldsOfStudy, _ = flags.GetStringSlice("fields-of-study")
	}
	if flags.Changed("max-results") {
		q.MaxResults, _ = flags.GetInt("max-results")
	}

	if q.YearFrom == 0 {
		q.YearFrom = cfg.Search.YearFrom
	}
	if q.YearTo == 0 {
		q.YearTo = cfg.Search.YearTo
	}
	if q.MaxResults == 0 {
		q.MaxResults = cfg.Search.MaxResults
	}
	q.Text = strings.TrimSpace(q.Text)
	if q.IsEmpty() {
		return q, nil, search.ErrEmptyQuery
	}

	def := cfg.Search.Sources
	if len(saved) > 0 {
		def = saved
	}
	sources, err := sourcesFlag(cmd, def)
	if err != nil {
		return q, nil, err
	}
	return q, sources, nil
}
