// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litsweep/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadListKeepsIntegerYears(t *testing.T) {
	path := writeFile(t, "papers.json", `[{"id":"1","year":2024,"citations":12.5}]`)

	c, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ShapeList, c.Shape)
	require.Len(t, c.Records, 1)
	assert.Equal(t, json.Number("2024"), c.Records[0]["year"])
	assert.Equal(t, "2024", c.Records[0].Year())
	assert.Equal(t, 12.5, c.Records[0].Citations())
}

func TestReadBySource(t *testing.T) {
	path := writeFile(t, "search.json", `
	{
	  "arxiv": [{"id": "arxiv:1"}],
	  "openalex": [{"id": "W1"}, {"id": "W2"}]
	}`)

	bs, err := ReadBySource(path)
	require.NoError(t, err)
	assert.Len(t, bs[types.SourceOpenAlex], 2)

	recs, err := ReadRecords(path)
	require.NoError(t, err)
	ids := []string{recs[0].ID(), recs[1].ID(), recs[2].ID()}
	assert.Equal(t, []string{"W1", "W2", "arxiv:1"}, ids, "flattened in source order")
}

func TestReadBySourceRejectsList(t *testing.T) {
	_, err := ReadBySource(writeFile(t, "list.json", `[]`))
	assert.Error(t, err)
}

func TestReadEmptyList(t *testing.T) {
	recs, err := ReadRecords(writeFile(t, "empty.json", `[]`))
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	_, err = Read(writeFile(t, "bad.json", `[{"id":`))
	assert.Error(t, err)

	_, err = Read(writeFile(t, "scalar.json", `42`))
	assert.Error(t, err)
}

func TestWriteRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.json")
	in := []types.Record{{"id": "1", "year": json.Number("2020"), "title": "A & B <x>"}}
	require.NoError(t, WriteRecords(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"1\"")
	assert.Contains(t, string(data), `"year": 2020`)
	assert.Contains(t, string(data), `"A & B <x>"`)

	out, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteNilRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteRecords(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestWriteBySourceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "by_source.json")
	in := types.BySource{types.SourceArxiv: {{"id": "arxiv:1"}}, types.SourceOpenAlex: {}}
	require.NoError(t, WriteBySource(path, in))

	out, err := ReadBySource(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(path, map[string]string{"b": "2"}))

	var got map[string]string
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, map[string]string{"b": "2"}, got)
}
