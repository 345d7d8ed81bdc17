// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litsweep pipeline.
// Records are loose field maps because the three search APIs never agree on
// a schema; the typed helpers here give every stage the same best-effort
// access rules.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names with meaning across pipeline stages.
const (
	FieldID         = "id"
	FieldDOI        = "doi"
	FieldTitle      = "title"
	FieldAbstract   = "abstract"
	FieldYear       = "year"
	FieldAuthors    = "authors"
	FieldCitations  = "citations"
	FieldVenue      = "venue"
	FieldURL        = "url"
	FieldReferences = "references"

	// FieldSource is assigned by cross-source orchestration, never by a backend.
	FieldSource = "_source"

	// FieldSeedSource marks papers found through citation expansion.
	FieldSeedSource = "_seed_source"

	// FieldAuthorName is the key read from a mapping-shaped author entry.
	FieldAuthorName = "name"
)

// Defaults substituted when a field is missing.
const (
	// DefaultID is used for records that carry no id.
	DefaultID = "unknown"

	// DefaultString is returned for absent string fields.
	DefaultString = ""

	// DefaultYear is the canonical form of an absent year.
	DefaultYear = ""
)

// Record is one paper as handed over by a search backend: an arbitrary
// mapping from field name to JSON-shaped value.
type Record map[string]any

// String returns the field as a string. Missing or null fields yield
// DefaultString; numbers and booleans are formatted.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return DefaultString
	}
	return Scalar(v)
}

// ID returns the record id, or DefaultID when the field is absent.
func (r Record) ID() string {
	v, ok := r[FieldID]
	if !ok || v == nil {
		return DefaultID
	}
	return Scalar(v)
}

// Year returns the canonical year string (see CanonicalYear).
func (r Record) Year() string {
	return CanonicalYear(r[FieldYear])
}

// YearInt returns the year as an integer and whether one was present.
func (r Record) YearInt() (int, bool) {
	y := r.Year()
	if y == DefaultYear {
		return 0, false
	}
	n, err := strconv.Atoi(y)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Number returns a numeric field as float64 and whether it was numeric.
func (r Record) Number(field string) (float64, bool) {
	return Float(r[field])
}

// Citations returns the citation count, accepting the "citationCount"
// spelling some exports use. Missing counts are zero.
func (r Record) Citations() float64 {
	if n, ok := r.Number(FieldCitations); ok {
		return n
	}
	if n, ok := r.Number("citationCount"); ok {
		return n
	}
	return 0
}

// List returns a list-valued field, or nil.
func (r Record) List(field string) []any {
	switch v := r[field].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

// Strings returns a list-valued field as strings, skipping nulls.
func (r Record) Strings(field string) []string {
	var out []string
	for _, v := range r.List(field) {
		if v == nil {
			continue
		}
		out = append(out, Scalar(v))
	}
	return out
}

// Source returns the origin tag.
func (r Record) Source() Source {
	return Source(r.String(FieldSource))
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Scalar formats a JSON-shaped scalar. Integral floats print without a
// fractional part so 2024.0 and 2024 share one representation.
func Scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return DefaultString
	case string:
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return strconv.FormatInt(n, 10)
		}
		if f, err := x.Float64(); err == nil {
			return formatFloat(f)
		}
		return x.String()
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// CanonicalYear converts a year value to the string used in composite keys
// and year comparisons. Absent or null years yield DefaultYear.
func CanonicalYear(v any) string {
	if v == nil {
		return DefaultYear
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return Scalar(v)
}

// Float converts a JSON-shaped numeric value to float64.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
