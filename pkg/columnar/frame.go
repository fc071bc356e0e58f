// Package columnar holds the column-oriented result of a parse job.
//
// A Frame is published once, after every chunk has been materialized, and is
// immutable afterwards. Every cell is a float64: numeric columns hold their
// value, categorical columns hold the index of the level in the column
// domain, and NaN marks a missing cell in both.
package columnar

import (
	"math"

	"github.com/ajitpratap0/chunkframe/pkg/schema"
)

// Column is one typed column of a Frame
type Column struct {
	Name   string
	Type   schema.ColumnType
	Domain *schema.Domain
	Values []float64
}

// Len returns the number of cells
func (c *Column) Len() int { return len(c.Values) }

// IsMissing reports whether cell i is missing
func (c *Column) IsMissing(i int) bool { return math.IsNaN(c.Values[i]) }

// Label returns the categorical level of cell i. ok is false for numeric
// columns and missing cells.
func (c *Column) Label(i int) (string, bool) {
	if c.Type != schema.Categorical {
		return "", false
	}
	v := c.Values[i]
	if math.IsNaN(v) {
		return "", false
	}
	idx := int(v)
	if idx < 0 || idx >= c.Domain.Len() {
		return "", false
	}
	return c.Domain.Level(idx), true
}

// ParseStats counts what happened while parsing. Recovered problems never
// fail a job; they only show up here.
type ParseStats struct {
	Chunks int   `json:"chunks"`
	Bytes  int64 `json:"bytes"`
	Rows   int64 `json:"rows"`
	// Stitched rows crossed a chunk boundary
	Stitched int `json:"stitched"`
	// Rescanned chunks began inside a quoted field
	Rescanned         int   `json:"rescanned"`
	MalformedNumeric  int64 `json:"malformed_numeric"`
	RowWidthMismatch  int64 `json:"row_width_mismatch"`
	UnterminatedQuote int64 `json:"unterminated_quote"`
	UnknownLevel      int64 `json:"unknown_level"`
	MalformedPairs    int64 `json:"malformed_pairs"`
}

// Add accumulates o into s
func (s *ParseStats) Add(o ParseStats) {
	s.Chunks += o.Chunks
	s.Bytes += o.Bytes
	s.Rows += o.Rows
	s.Stitched += o.Stitched
	s.Rescanned += o.Rescanned
	s.MalformedNumeric += o.MalformedNumeric
	s.RowWidthMismatch += o.RowWidthMismatch
	s.UnterminatedQuote += o.UnterminatedQuote
	s.UnknownLevel += o.UnknownLevel
	s.MalformedPairs += o.MalformedPairs
}

// Recovered returns the number of cells and rows that were patched up
func (s ParseStats) Recovered() int64 {
	return s.MalformedNumeric + s.RowWidthMismatch + s.UnterminatedQuote + s.UnknownLevel + s.MalformedPairs
}

// Segment is the materialized output of one chunk
type Segment struct {
	Index   int
	Rows    int
	Columns [][]float64
}

// Frame is the immutable, column-oriented result of a parse
type Frame struct {
	schema  *schema.Schema
	columns []*Column
	rows    int

	Stats ParseStats
}

// Schema returns the schema the frame was materialized with
func (f *Frame) Schema() *schema.Schema { return f.schema }

// NumRows returns the number of rows
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the number of columns
func (f *Frame) NumCols() int { return len(f.columns) }

// Column returns column j
func (f *Frame) Column(j int) *Column { return f.columns[j] }

// Columns returns all columns in order
func (f *Frame) Columns() []*Column { return f.columns }

// ColumnByName looks a column up by name
func (f *Frame) ColumnByName(name string) (*Column, bool) {
	for _, c := range f.columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// At returns the cell at row, col
func (f *Frame) At(row, col int) float64 {
	return f.columns[col].Values[row]
}

// Label returns the categorical level at row, col
func (f *Frame) Label(row, col int) (string, bool) {
	return f.columns[col].Label(row)
}

// Row copies row i out of the columns
func (f *Frame) Row(i int) []float64 {
	out := make([]float64, len(f.columns))
	for j, c := range f.columns {
		out[j] = c.Values[i]
	}
	return out
}
