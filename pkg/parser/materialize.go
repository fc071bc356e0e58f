package parser

import (
	"math"

	"go.uber.org/zap"

	"github.com/ajitpratap0/chunkframe/pkg/columnar"
	"github.com/ajitpratap0/chunkframe/pkg/parseerrors"
	"github.com/ajitpratap0/chunkframe/pkg/schema"
)

// Materializer converts a chunk's rows into float64 columns using the final
// schema. The schema is only read, so one Materializer serves all workers.
type Materializer struct {
	schema *schema.Schema
	quote  byte
	class  classifier
	logger *zap.Logger
}

// NewMaterializer creates a materializer for s
func NewMaterializer(s *schema.Schema, quote byte, naStrings []string, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Format == schema.SparseLabeled {
		quote = 0
	}
	return &Materializer{
		schema: s,
		quote:  quote,
		class:  newClassifier(naStrings),
		logger: logger,
	}
}

// Chunk materializes one block. Recoverable problems become NaN cells and
// are counted in the returned stats.
func (m *Materializer) Chunk(block RowBlock) (columnar.Segment, columnar.ParseStats, error) {
	ncols := m.schema.NumCols()
	seg := columnar.Segment{
		Index:   block.Index,
		Rows:    len(block.Rows),
		Columns: make([][]float64, ncols),
	}
	for j := range seg.Columns {
		seg.Columns[j] = make([]float64, 0, len(block.Rows))
	}

	var stats columnar.ParseStats
	var err error
	switch m.schema.Format {
	case schema.Delimited:
		err = m.delimited(block, &seg, &stats)
	case schema.SparseLabeled:
		m.sparse(block, &seg, &stats)
	default:
		err = parseerrors.New(parseerrors.ErrorTypeInternal, "unknown input format")
	}
	if err != nil {
		return columnar.Segment{}, stats, err
	}
	stats.Rows = int64(len(block.Rows))

	if stats.Recovered() > 0 {
		m.logger.Debug("recovered malformed cells",
			zap.Int("chunk", block.Index),
			zap.Int64(string(parseerrors.ErrorTypeMalformedNumeric), stats.MalformedNumeric),
			zap.Int64(string(parseerrors.ErrorTypeRowWidth), stats.RowWidthMismatch),
			zap.Int64(string(parseerrors.ErrorTypeUnterminatedQuote), stats.UnterminatedQuote),
			zap.Int64("unknown_level", stats.UnknownLevel),
			zap.Int64("malformed_pair", stats.MalformedPairs))
	}
	return seg, stats, nil
}

func (m *Materializer) delimited(block RowBlock, seg *columnar.Segment, stats *columnar.ParseStats) error {
	ncols := len(seg.Columns)
	tok := NewTokenizer(m.schema.Sep(), m.quote)
	defer tok.Release()

	for r, row := range block.Rows {
		tokens, unterminated := tok.Split(row)
		if unterminated {
			stats.UnterminatedQuote++
		}
		if len(tokens) > ncols {
			return parseerrors.New(parseerrors.ErrorTypeInternal, "row is wider than the schema").
				WithDetail("chunk", block.Index).
				WithDetail("row", r).
				WithDetail("width", len(tokens)).
				WithDetail("columns", ncols)
		}
		if len(tokens) < ncols {
			stats.RowWidthMismatch++
		}

		for j := 0; j < ncols; j++ {
			if j >= len(tokens) {
				seg.Columns[j] = append(seg.Columns[j], math.NaN())
				continue
			}
			seg.Columns[j] = append(seg.Columns[j], m.cell(j, tokens[j], stats))
		}
	}
	return nil
}

func (m *Materializer) cell(j int, t Token, stats *columnar.ParseStats) float64 {
	col := &m.schema.Columns[j]
	class := m.class.classify(t)

	switch col.Type {
	case schema.Numeric:
		switch class {
		case classMissing:
			return math.NaN()
		case classNumeric:
			if v, ok := ParseNumber(t.Value); ok {
				return v
			}
			stats.MalformedNumeric++
			return math.NaN()
		case classText:
			stats.MalformedNumeric++
			return math.NaN()
		}
	case schema.Categorical:
		if class == classMissing {
			return math.NaN()
		}
		if idx, ok := col.Domain.Index(t.Value); ok {
			return float64(idx)
		}
		stats.UnknownLevel++
		return math.NaN()
	}
	return math.NaN()
}

func (m *Materializer) sparse(block RowBlock, seg *columnar.Segment, stats *columnar.ParseStats) {
	ncols := len(seg.Columns)
	tok := NewTokenizer(' ', 0)
	defer tok.Release()

	for _, row := range block.Rows {
		base := len(seg.Columns[0])
		for j := range seg.Columns {
			seg.Columns[j] = append(seg.Columns[j], 0)
		}

		tokens, _ := tok.Split(row)
		if len(tokens) == 0 {
			continue
		}
		if v, ok := ParseNumber(tokens[0].Value); ok {
			seg.Columns[0][base] = v
		} else {
			seg.Columns[0][base] = math.NaN()
			stats.MalformedNumeric++
		}

		for _, t := range tokens[1:] {
			idx, val, ok := splitPair(t.Value)
			if !ok {
				stats.MalformedPairs++
				continue
			}
			k, ok := parseIndex(idx)
			if !ok || k < 1 || k >= ncols {
				stats.MalformedPairs++
				continue
			}
			v, ok := ParseNumber(val)
			if !ok {
				v = math.NaN()
				stats.MalformedNumeric++
			}
			seg.Columns[k][base] = v
		}
	}
}
