// Package schema holds the global, chunk-independent description of a parsed
// frame: the type of every column, the categorical domains, and the votes that
// chunks cast to decide them.
//
// Votes are collected per chunk, merged with an associative and commutative
// reduction, and turned into a Schema exactly once by Build. A Schema is
// read-only after construction and may be shared by any number of workers.
package schema

import (
	"fmt"
	"sort"

	gojson "github.com/goccy/go-json"

	stringpool "github.com/ajitpratap0/chunkframe/pkg/strings"
)

// ColumnType is the final type of a frame column
type ColumnType uint8

const (
	// Numeric columns hold float64 values, NaN for missing
	Numeric ColumnType = iota
	// Categorical columns hold the index of the level in the column domain
	Categorical
)

// String returns the lowercase name of the type
func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// MarshalText implements encoding.TextMarshaler
func (t ColumnType) MarshalText() ([]byte, error) {
	switch t {
	case Numeric, Categorical:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("unknown column type %d", uint8(t))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ColumnType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "numeric":
		*t = Numeric
	case "categorical":
		*t = Categorical
	default:
		return fmt.Errorf("unknown column type %q", text)
	}
	return nil
}

// Format is the input layout detected for the whole input
type Format uint8

const (
	// Delimited rows are separator-delimited tokens
	Delimited Format = iota
	// SparseLabeled rows are "label index:value ..." (SVMLight)
	SparseLabeled
)

// String returns the lowercase name of the format
func (f Format) String() string {
	switch f {
	case Delimited:
		return "delimited"
	case SparseLabeled:
		return "sparse"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// MarshalText implements encoding.TextMarshaler
func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case Delimited, SparseLabeled:
		return []byte(f.String()), nil
	default:
		return nil, fmt.Errorf("unknown format %d", uint8(f))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Format) UnmarshalText(text []byte) error {
	switch string(text) {
	case "delimited":
		*f = Delimited
	case "sparse":
		*f = SparseLabeled
	default:
		return fmt.Errorf("unknown format %q", text)
	}
	return nil
}

// Domain is the sorted, de-duplicated set of levels of a categorical column.
// The index of a level is its rank in byte order.
type Domain struct {
	levels []string
	index  map[string]int
}

// NewDomain builds a domain from levels in any order, dropping duplicates
func NewDomain(levels []string) *Domain {
	sorted := make([]string, 0, len(levels))
	seen := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}
	return &Domain{levels: sorted, index: index}
}

// Len returns the number of levels
func (d *Domain) Len() int {
	if d == nil {
		return 0
	}
	return len(d.levels)
}

// Level returns the level with the given index, or "" when i is out of range
func (d *Domain) Level(i int) string {
	if d == nil || i < 0 || i >= len(d.levels) {
		return ""
	}
	return d.levels[i]
}

// Levels returns a copy of the levels in index order
func (d *Domain) Levels() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.levels...)
}

// Index returns the index of a raw token
func (d *Domain) Index(token []byte) (int, bool) {
	if d == nil {
		return 0, false
	}
	i, ok := d.index[string(token)]
	return i, ok
}

// MarshalJSON encodes the domain as its ordered level list
func (d *Domain) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(d.levels)
}

// UnmarshalJSON decodes a level list
func (d *Domain) UnmarshalJSON(data []byte) error {
	var levels []string
	if err := gojson.Unmarshal(data, &levels); err != nil {
		return err
	}
	*d = *NewDomain(levels)
	return nil
}

// Column describes one frame column
type Column struct {
	Name   string     `json:"name"`
	Type   ColumnType `json:"type"`
	Domain *Domain    `json:"domain,omitempty"`
}

// Schema is the immutable description of a frame
type Schema struct {
	Format    Format   `json:"format"`
	Separator string   `json:"separator,omitempty"`
	Columns   []Column `json:"columns"`
}

// NumCols returns the number of columns
func (s *Schema) NumCols() int {
	return len(s.Columns)
}

// Names returns the column names in order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Sep returns the separator byte, or 0 for sparse input
func (s *Schema) Sep() byte {
	if s.Separator == "" {
		return 0
	}
	return s.Separator[0]
}

// JSON encodes the schema for export
func (s *Schema) JSON() ([]byte, error) {
	return gojson.MarshalIndent(s, "", "  ")
}

// FromJSON decodes a schema previously produced by JSON
func FromJSON(data []byte) (*Schema, error) {
	var s Schema
	if err := gojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	return &s, nil
}

// DefaultName returns the name of column i when no header names it
func DefaultName(i int) string {
	return stringpool.Sprintf("C%d", i+1)
}
