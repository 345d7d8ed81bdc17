// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact reads and writes the JSON files exchanged between
// pipeline stages. Numbers are decoded as json.Number so integer years and
// counts are written back exactly as they were read.
package artifact

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/litsweep/pkg/types"
)

// Shape describes the top-level layout of an artifact.
type Shape int

const (
	// ShapeList is a flat array of records.
	ShapeList Shape = iota

	// ShapeBySource is an object mapping source name to an array of records.
	ShapeBySource
)

// Collection is the content of an artifact in either shape.
type Collection struct {
	Shape    Shape
	Records  []types.Record
	BySource types.BySource
}

// All returns every record, flattening a by-source collection in source order.
func (c Collection) All() []types.Record {
	if c.Shape == ShapeList {
		return c.Records
	}
	var out []types.Record
	for _, src := range types.OrderedSources(c.BySource) {
		out = append(out, c.BySource[src]...)
	}
	return out
}

// Read loads an artifact of either shape.
func Read(path string) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Collection{}, eris.Wrapf(err, "reading %s", path)
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var bs types.BySource
		if err := decode(data, &bs); err != nil {
			return Collection{}, eris.Wrapf(err, "parsing %s", path)
		}
		return Collection{Shape: ShapeBySource, BySource: bs}, nil
	}
	var recs []types.Record
	if err := decode(data, &recs); err != nil {
		return Collection{}, eris.Wrapf(err, "parsing %s", path)
	}
	if recs == nil {
		recs = []types.Record{}
	}
	return Collection{Shape: ShapeList, Records: recs}, nil
}

// ReadRecords loads a flat record list. A by-source artifact is flattened.
func ReadRecords(path string) ([]types.Record, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	return c.All(), nil
}

// ReadBySource loads a by-source artifact.
func ReadBySource(path string) (types.BySource, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if c.Shape != ShapeBySource {
		return nil, eris.Errorf("%s holds a record list, expected records grouped by source", path)
	}
	return c.BySource, nil
}

// WriteRecords writes records as an indented JSON array.
func WriteRecords(path string, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	return write(path, records)
}

// WriteBySource writes records grouped by source as an indented JSON object.
func WriteBySource(path string, bySource types.BySource) error {
	if bySource == nil {
		bySource = types.BySource{}
	}
	return write(path, bySource)
}

// WriteJSON writes any value as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	return write(path, v)
}

// Encode writes v as indented JSON to w.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Unmarshal decodes JSON with numbers kept as json.Number.
func Unmarshal(data []byte, v any) error {
	return decode(data, v)
}

func write(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "creating directory %s", dir)
		}
	}
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return eris.Wrapf(err, "encoding %s", path)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "writing %s", path)
	}
	return nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
