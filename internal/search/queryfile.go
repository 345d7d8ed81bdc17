// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litsweep/pkg/types"
)

// QueryFile is the on-disk record of a search: the parameters that produced
// it, where the results were written, and per-source counts. A saved query
// can be re-run later with the same parameters.
type QueryFile struct {
	Query       QueryParams  `yaml:"query"`
	ResultsPath string       `yaml:"results_path,omitempty"`
	Summary     QuerySummary `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Text          string         `yaml:"text"`
	YearFrom      int            `yaml:"year_from,omitempty"`
	YearTo        int            `yaml:"year_to,omitempty"`
	MaxResults    int            `yaml:"max_results,omitempty"`
	MinCitations  int            `yaml:"min_citations,omitempty"`
	Categories    []string       `yaml:"categories,omitempty"`
	FieldsOfStudy []string       `yaml:"fields_of_study,omitempty"`
	Venue         string         `yaml:"venue,omitempty"`
	Sources       []types.Source `yaml:"sources,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total         int                     `yaml:"total"`
	PerSource     map[types.Source]int    `yaml:"per_source"`
	BackendErrors map[types.Source]string `yaml:"backend_errors,omitempty"`
	Timestamp     time.Time               `yaml:"timestamp"`
}

// NewQueryFile captures a finished search.
func NewQueryFile(query Query, sources []types.Source, resultsPath string, out SearchOutput) QueryFile {
	perSource := make(map[types.Source]int, len(out.BySource))
	for src, recs := range out.BySource {
		perSource[src] = len(recs)
	}
	var errs map[types.Source]string
	if len(out.BackendErrors) > 0 {
		errs = out.BackendErrors
	}
	return QueryFile{
		Query:       ParamsFromQuery(query, sources),
		ResultsPath: resultsPath,
		Summary: QuerySummary{
			Total:         out.Total(),
			PerSource:     perSource,
			BackendErrors: errs,
			Timestamp:     time.Now().UTC(),
		},
	}
}

// ParamsFromQuery converts a Query into its serializable form.
func ParamsFromQuery(q Query, sources []types.Source) QueryParams {
	return QueryParams{
		Text:          q.Text,
		YearFrom:      q.YearFrom,
		YearTo:        q.YearTo,
		MaxResults:    q.MaxResults,
		MinCitations:  q.MinCitations,
		Categories:    q.Categories,
		FieldsOfStudy: q.FieldsOfStudy,
		Venue:         q.Venue,
		Sources:       sources,
	}
}

// WriteQueryFile saves a query file as YAML.
func WriteQueryFile(path string, qf QueryFile) error {
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return eris.Wrap(err, "marshaling query file")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "writing query file %s", path)
	}
	return nil
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "reading query file")
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, eris.Wrap(err, "parsing query file")
	}
	return &qf, nil
}

// ToQuery converts stored QueryParams back into a Query.
func (p QueryParams) ToQuery() (Query, error) {
	q := Query{
		Text:          p.Text,
		YearFrom:      p.YearFrom,
		YearTo:        p.YearTo,
		MaxResults:    p.MaxResults,
		MinCitations:  p.MinCitations,
		Categories:    p.Categories,
		FieldsOfStudy: p.FieldsOfStudy,
		Venue:         p.Venue,
	}
	if q.IsEmpty() {
		return q, ErrEmptyQuery
	}
	if q.YearFrom > 0 && q.YearTo > 0 && q.YearFrom > q.YearTo {
		return q, eris.Errorf("year_from %d is after year_to %d", q.YearFrom, q.YearTo)
	}
	return q, nil
}
