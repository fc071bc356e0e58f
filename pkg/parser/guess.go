package parser

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/chunkframe/pkg/schema"
)

// maxSparseIndex bounds the width a sparse input may declare
const maxSparseIndex = 1 << 24

// tokenClass is the local classification of one token
type tokenClass uint8

const (
	classMissing tokenClass = iota
	classNumeric
	classText
)

// classifier sorts tokens into missing, numeric and text
type classifier struct {
	na map[string]struct{}
}

func newClassifier(naStrings []string) classifier {
	na := make(map[string]struct{}, len(naStrings))
	for _, s := range naStrings {
		na[s] = struct{}{}
	}
	return classifier{na: na}
}

func (c classifier) classify(t Token) tokenClass {
	if len(t.Value) == 0 {
		return classMissing
	}
	if t.Quoted {
		return classText
	}
	if _, ok := c.na[string(t.Value)]; ok {
		return classMissing
	}
	if IsNumeric(t.Value) {
		return classNumeric
	}
	return classText
}

// Guesser casts one chunk's type vote
type Guesser struct {
	setup     Setup
	class     classifier
	maxLevels int
	logger    *zap.Logger
}

// NewGuesser creates a guesser for the chosen setup
func NewGuesser(setup Setup, naStrings []string, maxLevels int, logger *zap.Logger) *Guesser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guesser{
		setup:     setup,
		class:     newClassifier(naStrings),
		maxLevels: maxLevels,
		logger:    logger,
	}
}

// Vote classifies every token of the block and returns the chunk's vote
func (g *Guesser) Vote(block RowBlock) *schema.ChunkVote {
	switch g.setup.Format {
	case schema.SparseLabeled:
		return g.voteSparse(block)
	case schema.Delimited:
		return g.voteDelimited(block)
	default:
		return schema.NewChunkVote(0)
	}
}

func (g *Guesser) voteDelimited(block RowBlock) *schema.ChunkVote {
	vote := schema.NewChunkVote(len(g.setup.Names))
	tok := NewTokenizer(g.setup.Separator, g.setup.Quote)
	defer tok.Release()

	for _, row := range block.Rows {
		tokens, _ := tok.Split(row)
		for j, t := range tokens {
			col := vote.Column(j)
			switch g.class.classify(t) {
			case classMissing:
				col.AddMissing()
			case classNumeric:
				col.AddNumeric(t.Value, g.maxLevels)
			case classText:
				col.AddText(t.Value, g.maxLevels)
			}
		}
		vote.Rows++
	}

	g.logger.Debug("chunk voted",
		zap.Int("chunk", block.Index),
		zap.Int64("rows", vote.Rows),
		zap.Int("columns", len(vote.Columns)))
	return vote
}

func (g *Guesser) voteSparse(block RowBlock) *schema.ChunkVote {
	vote := schema.NewChunkVote(1)
	tok := NewTokenizer(' ', 0)
	defer tok.Release()

	for _, row := range block.Rows {
		tokens, _ := tok.Split(row)
		for _, t := range tokens[min(1, len(tokens)):] {
			idx, _, ok := splitPair(t.Value)
			if !ok {
				continue
			}
			if k, ok := parseIndex(idx); ok && k > vote.MaxSparseIndex {
				vote.MaxSparseIndex = k
			}
		}
		vote.Rows++
	}

	g.logger.Debug("chunk voted",
		zap.Int("chunk", block.Index),
		zap.Int64("rows", vote.Rows),
		zap.Int("max_index", vote.MaxSparseIndex))
	return vote
}
