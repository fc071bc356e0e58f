package columnar

import (
	"sort"

	"github.com/ajitpratap0/chunkframe/pkg/parseerrors"
	"github.com/ajitpratap0/chunkframe/pkg/schema"
)

// Assemble concatenates segments in chunk order into a Frame. Segments that
// disagree with the schema or with their own row count are an internal
// error.
func Assemble(s *schema.Schema, segments []Segment, stats ParseStats) (*Frame, error) {
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	ncols := s.NumCols()
	rows := 0
	for _, seg := range ordered {
		if len(seg.Columns) != ncols {
			return nil, parseerrors.New(parseerrors.ErrorTypeInternal, "segment column count does not match schema").
				WithDetail("chunk", seg.Index).
				WithDetail("columns", len(seg.Columns)).
				WithDetail("expected", ncols)
		}
		for j, col := range seg.Columns {
			if len(col) != seg.Rows {
				return nil, parseerrors.New(parseerrors.ErrorTypeInternal, "column length does not match segment rows").
					WithDetail("chunk", seg.Index).
					WithDetail("column", j).
					WithDetail("length", len(col)).
					WithDetail("rows", seg.Rows)
			}
		}
		rows += seg.Rows
	}

	f := &Frame{
		schema:  s,
		columns: make([]*Column, ncols),
		rows:    rows,
		Stats:   stats,
	}
	for j := range f.columns {
		def := s.Columns[j]
		values := make([]float64, 0, rows)
		for _, seg := range ordered {
			values = append(values, seg.Columns[j]...)
		}
		f.columns[j] = &Column{
			Name:   def.Name,
			Type:   def.Type,
			Domain: def.Domain,
			Values: values,
		}
	}
	return f, nil
}
