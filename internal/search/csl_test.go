// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litsweep/pkg/types"
)

func TestToCSLItemArticle(t *testing.T) {
	item := toCSLItem(types.Record{
		"id":      "https://openalex.org/W1",
		"title":   "Attention Is All You Need",
		"doi":     "https://doi.org/10.5555/ABC",
		"year":    2017,
		"venue":   "NeurIPS",
		"authors": []any{"Ashish Vaswani", map[string]any{"name": "Noam Shazeer"}, "Plato"},
	})

	assert.Equal(t, "https://openalex.org/W1", item.ID)
	assert.Equal(t, "article", item.Type)
	assert.Equal(t, "10.5555/abc", item.DOI)
	assert.Equal(t, "NeurIPS", item.ContainerTitle)
	require.NotNil(t, item.Issued)
	assert.Equal(t, [][]int{{2017}}, item.Issued.DateParts)
	assert.Equal(t, []CSLName{
		{Given: "Ashish", Family: "Vaswani"},
		{Given: "Noam", Family: "Shazeer"},
		{Literal: "Plato"},
	}, item.Author)
}

func TestToCSLItemPreprint(t *testing.T) {
	item := toCSLItem(types.Record{"id": "arxiv:1706.03762", "title": "T"})
	assert.Equal(t, "article-preprint", item.Type)
	assert.Nil(t, item.Issued)
	assert.Empty(t, item.DOI)
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSL([]types.Record{
		{"id": "a", "title": "One", "year": 2020},
		{"id": "b", "title": "Two"},
	}, &buf))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "One", items[0].Title)
	assert.Contains(t, buf.String(), "date-parts")
}

func TestParseAuthorName(t *testing.T) {
	assert.Equal(t, CSLName{}, parseAuthorName("  "))
	assert.Equal(t, CSLName{Literal: "Aristotle"}, parseAuthorName("Aristotle"))
	assert.Equal(t, CSLName{Given: "Jean Claude", Family: "Van"}, parseAuthorName("Jean Claude Van"))
	assert.Equal(t, CSLName{Given: "Ann", Family: "Lee"}, parseAuthorName("Lee, Ann"))
	assert.Equal(t, CSLName{Given: "Ann", Family: "Lee"}, parseAuthorName("  Ann   Lee "))
	assert.Equal(t, CSLName{Literal: "Plato"}, parseAuthorName("Plato,"))
}

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yaml")
	q := Query{Text: "change detection", YearFrom: 2020, YearTo: 2024, Categories: []string{"cs.CV"}}
	out := SearchOutput{
		BySource: types.BySource{
			types.SourceArxiv:    {{"id": "1"}, {"id": "2"}},
			types.SourceOpenAlex: {},
		},
		BackendErrors: map[types.Source]string{types.SourceOpenAlex: "HTTP 500"},
	}

	qf := NewQueryFile(q, []types.Source{types.SourceArxiv, types.SourceOpenAlex}, "artifacts/search.json", out)
	require.NoError(t, WriteQueryFile(path, qf))

	loaded, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Summary.Total)
	assert.Equal(t, 2, loaded.Summary.PerSource[types.SourceArxiv])
	assert.Equal(t, "HTTP 500", loaded.Summary.BackendErrors[types.SourceOpenAlex])
	assert.Equal(t, "artifacts/search.json", loaded.ResultsPath)

	back, err := loaded.Query.ToQuery()
	require.NoError(t, err)
	assert.Equal(t, q, back)
}

func TestQueryParamsToQueryValidation(t *testing.T) {
	_, err := QueryParams{}.ToQuery()
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = QueryParams{Text: "x", YearFrom: 2024, YearTo: 2020}.ToQuery()
	assert.Error(t, err)
}

func TestReadQueryFileErrors(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("query: [unclosed"), 0o644))
	_, err = ReadQueryFile(bad)
	assert.Error(t, err)
}
