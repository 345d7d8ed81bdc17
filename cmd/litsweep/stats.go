// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litsweep/internal/analysis"
	"github.com/pdiddy/litsweep/internal/artifact"
	"github.com/pdiddy/litsweep/pkg/types"
)

// Analysis names accepted by --analysis.
const (
	analysisDistribution = "distribution"
	analysisFrequency    = "frequency"
	analysisCorrelation  = "correlation"
	analysisCompare      = "compare"
	analysisTemporal     = "temporal"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run descriptive statistics over a paper collection",
	Long: `Stats runs one or more analyses and writes their results as one JSON
object keyed by analysis name:

  distribution  numeric summary and histogram of --field
  frequency     most common values of --field (lists count each element)
  correlation   Pearson r between --field1 and --field2
  compare       --metric-field summarized per value of --group-field
  temporal      papers grouped by year with year-over-year growth`,
	RunE: runStats,
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Build the citation network of a collection",
	Long: `Network links papers whose references resolve to other papers in the same
collection and scores each node with PageRank.`,
	RunE: runNetwork,
}

func init() {
	statsCmd.Flags().StringP("input", "i", "", "papers JSON (flat list or grouped by source)")
	statsCmd.Flags().StringSlice("analysis", []string{analysisDistribution}, "analyses to run")
	statsCmd.Flags().String("field", "", "field for distribution and frequency")
	statsCmd.Flags().String("field1", "", "first field for correlation (default --field)")
	statsCmd.Flags().String("field2", "", "second field for correlation")
	statsCmd.Flags().String("group-field", "", "grouping field for compare")
	statsCmd.Flags().String("metric-field", "", "metric field for compare")
	statsCmd.Flags().Int("top", 20, "values listed by frequency")
	statsCmd.Flags().StringP("output", "o", "", "output JSON file (default stdout)")
	requireFlags(statsCmd, "input")

	networkCmd.Flags().StringP("input", "i", "", "papers JSON (flat list or grouped by source)")
	networkCmd.Flags().StringP("output", "o", "", "output JSON file (default stdout)")
	requireFlags(networkCmd, "input")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(networkCmd)
}

// statsParams carries the flags an analysis may need.
type statsParams struct {
	field, field1, field2   string
	groupField, metricField string
	top                     int
}

func runStats(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	analyses, _ := cmd.Flags().GetStringSlice("analysis")

	var p statsParams
	p.field, _ = cmd.Flags().GetString("field")
	p.field1, _ = cmd.Flags().GetString("field1")
	p.field2, _ = cmd.Flags().GetString("field2")
	p.groupField, _ = cmd.Flags().GetString("group-field")
	p.metricField, _ = cmd.Flags().GetString("metric-field")
	p.top, _ = cmd.Flags().GetInt("top")
	if p.field1 == "" {
		p.field1 = p.field
	}

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}
	records := c.All()
	if len(records) == 0 {
		return eris.Errorf("no papers in %s", input)
	}

	results, err := runAnalyses(records, analyses, p)
	if err != nil {
		return err
	}

	w, closeFn, err := outputWriter(output)
	if err != nil {
		return err
	}
	if err := artifact.Encode(w, results); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if output != "" && output != "-" {
		printStatsSummary(os.Stdout, results)
	}
	return nil
}

// runAnalyses runs each named analysis and collects the results by name.
func runAnalyses(records []types.Record, analyses []string, p statsParams) (map[string]any, error) {
	results := make(map[string]any, len(analyses))
	for _, name := range analyses {
		switch name {
		case analysisDistribution:
			if p.field == "" {
				return nil, eris.New("--field is required for distribution analysis")
			}
			d, err := analysis.NewDistribution(records, p.field)
			if err != nil {
				return nil, err
			}
			results[name] = d
		case analysisFrequency:
			if p.field == "" {
				return nil, eris.New("--field is required for frequency analysis")
			}
			results[name] = analysis.NewFrequency(records, p.field, p.top)
		case analysisCorrelation:
			if p.field1 == "" || p.field2 == "" {
				return nil, eris.New("--field1 and --field2 are required for correlation analysis")
			}
			corr, err := analysis.NewCorrelation(records, p.field1, p.field2)
			if err != nil {
				return nil, err
			}
			results[name] = corr
		case analysisCompare:
			if p.groupField == "" || p.metricField == "" {
				return nil, eris.New("--group-field and --metric-field are required for compare analysis")
			}
			results[name] = analysis.CompareGroups(records, p.groupField, p.metricField)
		case analysisTemporal:
			results[name] = analysis.NewTemporal(records)
		default:
			return nil, eris.Errorf("unknown analysis %q", name)
		}
	}
	return results, nil
}

func printStatsSummary(w io.Writer, results map[string]any) {
	if d, ok := results[analysisDistribution].(analysis.Distribution); ok {
		fmt.Fprintf(w, "%s distribution (n=%d):\n", d.Field, d.Count)
		fmt.Fprintf(w, "  Mean: %.2f  Median: %.2f  Std: %.2f\n", d.Mean, d.Median, d.Std)
		fmt.Fprintf(w, "  Range: %g - %g  Outliers: %d\n", d.Min, d.Max, d.Outliers.Count)
	}
	if f, ok := results[analysisFrequency].(analysis.Frequency); ok {
		fmt.Fprintf(w, "Top %s values (%d unique):\n", f.Field, f.TotalUnique)
		for _, vc := range f.TopValues {
			fmt.Fprintf(w, "  %s: %d\n", vc.Value, vc.Count)
		}
	}
	if c, ok := results[analysisCorrelation].(analysis.Correlation); ok {
		fmt.Fprintf(w, "Correlation %s vs %s: r = %.3f (%s, n=%d)\n", c.Field1, c.Field2, c.R, c.Interpretation, c.N)
	}
	if cmp, ok := results[analysisCompare].(analysis.Comparison); ok {
		fmt.Fprintf(w, "%s by %s:\n", cmp.MetricField, cmp.GroupField)
		groups := make([]string, 0, len(cmp.Groups))
		for g := range cmp.Groups {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			s := cmp.Groups[g]
			fmt.Fprintf(w, "  %s: mean=%.2f, n=%d\n", g, s.Mean, s.Count)
		}
	}
	if t, ok := results[analysisTemporal].(analysis.Temporal); ok {
		fmt.Fprintf(w, "Years: %s (%d years, %d undated)\n", t.YearRange, t.TotalYears, t.Undated)
	}
}

func runNetwork(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	c, err := artifact.Read(input)
	if err != nil {
		return err
	}
	net := analysis.BuildNetwork(c.All())

	w, closeFn, err := outputWriter(output)
	if err != nil {
		return err
	}
	if err := artifact.Encode(w, net); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if output != "" && output != "-" {
		fmt.Fprintf(os.Stdout, "Network: %d papers, %d citation links\n", net.Stats.TotalPapers, net.Stats.Edges)
	}
	return nil
}
