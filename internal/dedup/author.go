// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"strings"

	"github.com/pdiddy/litsweep/pkg/types"
)

// Author is one entry of a record's authors list. Sources hand over either
// a bare name or a mapping with a "name" field.
type Author interface {
	// Name returns the author's display name, or "" when unknown.
	Name() string

	// Normalized returns the lowercased, trimmed name used for matching.
	Normalized() string
}

// PlainName is an author given as a bare string.
type PlainName string

// Name returns the name as given.
func (p PlainName) Name() string { return string(p) }

// Normalized returns the lowercased, trimmed name.
func (p PlainName) Normalized() string { return normalizeName(string(p)) }

// NamedRecord is an author given as a mapping (e.g. Semantic Scholar's
// {"authorId": ..., "name": ...}).
type NamedRecord map[string]any

// Name returns the mapping's name field, or "" when absent.
func (n NamedRecord) Name() string {
	v, ok := n[types.FieldAuthorName]
	if !ok || v == nil {
		return types.DefaultString
	}
	return types.Scalar(v)
}

// Normalized returns the lowercased, trimmed name field.
func (n NamedRecord) Normalized() string { return normalizeName(n.Name()) }

// ParseAuthor classifies a raw authors-list entry. Mappings become
// NamedRecord; anything else is formatted as a PlainName.
func ParseAuthor(v any) Author {
	switch a := v.(type) {
	case map[string]any:
		return NamedRecord(a)
	case types.Record:
		return NamedRecord(a)
	case string:
		return PlainName(a)
	case nil:
		return PlainName("")
	default:
		return PlainName(types.Scalar(a))
	}
}

// AuthorNames returns the display names of every author on r.
func AuthorNames(r types.Record) []string {
	raw := r.List(types.FieldAuthors)
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if n := ParseAuthor(v).Name(); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func normalizeName(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
