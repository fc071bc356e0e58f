package schema

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/chunkframe/pkg/parseerrors"
)

// Options controls how a merged vote becomes a Schema
type Options struct {
	Format    Format
	Separator byte
	// Names from the header row, if any. Missing or empty names get C1..Cn.
	Names []string
	// Forced lists column indices that are always categorical
	Forced map[int]bool
	// MaxCategoricalLevels is the largest domain a column may have
	MaxCategoricalLevels int
	Logger               *zap.Logger
}

// Build decides the type of every column from the merged vote of all chunks.
// The decision only depends on summed counts and distinct-set unions, so it
// is the same for every way of chunking the input.
func Build(vote *ChunkVote, opts Options) (*Schema, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if vote == nil {
		vote = NewChunkVote(0)
	}

	s := &Schema{Format: opts.Format}
	var err error
	switch opts.Format {
	case Delimited:
		if opts.Separator != 0 {
			s.Separator = string(opts.Separator)
		}
		err = buildDelimited(s, vote, opts, logger)
	case SparseLabeled:
		err = buildSparse(s, vote, opts)
	default:
		err = parseerrors.New(parseerrors.ErrorTypeInternal, "unknown input format").
			WithDetail("format", opts.Format.String())
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func buildDelimited(s *Schema, vote *ChunkVote, opts Options, logger *zap.Logger) error {
	width := len(vote.Columns)
	if len(opts.Names) > width {
		width = len(opts.Names)
	}

	s.Columns = make([]Column, width)
	for i := range s.Columns {
		col := &s.Columns[i]
		col.Name = columnName(opts.Names, i)

		var v ColumnVote
		if i < len(vote.Columns) {
			v = vote.Columns[i]
		}
		forced := opts.Forced[i]
		if !forced && !(v.Text > 0 && v.Text >= v.Numeric) {
			col.Type = Numeric
			continue
		}

		if v.Overflow {
			if forced {
				return parseerrors.New(parseerrors.ErrorTypeValidation, "forced categorical column exceeds the level limit").
					WithDetail("column", i).
					WithDetail("max_levels", opts.MaxCategoricalLevels)
			}
			logger.Warn("categorical column exceeds the level limit, demoting to numeric",
				zap.Int("column", i),
				zap.String("name", col.Name),
				zap.Int("max_levels", opts.MaxCategoricalLevels))
			col.Type = Numeric
			continue
		}

		levels := make([]string, 0, len(v.Distinct))
		for tok := range v.Distinct {
			levels = append(levels, tok)
		}
		col.Type = Categorical
		col.Domain = NewDomain(levels)
	}

	for idx := range opts.Forced {
		if idx >= width {
			logger.Warn("forced categorical column does not exist", zap.Int("column", idx), zap.Int("columns", width))
		}
	}
	return nil
}

func buildSparse(s *Schema, vote *ChunkVote, opts Options) error {
	if len(opts.Forced) > 0 {
		return parseerrors.New(parseerrors.ErrorTypeValidation, "categorical columns are not supported for sparse input")
	}
	width := vote.MaxSparseIndex + 1
	s.Columns = make([]Column, width)
	for i := range s.Columns {
		s.Columns[i] = Column{Name: columnName(opts.Names, i), Type: Numeric}
	}
	return nil
}

func columnName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return DefaultName(i)
}
