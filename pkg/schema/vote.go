package schema

// VoteKind is the type a single chunk suggests for a column
type VoteKind uint8

const (
	// VoteNumeric means the chunk saw no text tokens for the column
	VoteNumeric VoteKind = iota
	// VoteCategorical means the chunk saw at least one text token
	VoteCategorical
)

// ColumnVote is what a chunk observed for one column position.
type ColumnVote struct {
	Numeric int64
	Text    int64
	Missing int64
	// Distinct holds every non-missing raw token seen, numeric-looking ones
	// included. It is nil once Overflow is set.
	Distinct map[string]struct{}
	Overflow bool
}

// Kind returns the local type suggestion of the vote
func (v *ColumnVote) Kind() VoteKind {
	if v.Text > 0 {
		return VoteCategorical
	}
	return VoteNumeric
}

// AddMissing records an empty or NA token
func (v *ColumnVote) AddMissing() {
	v.Missing++
}

// AddNumeric records a token matching the numeric grammar
func (v *ColumnVote) AddNumeric(raw []byte, maxLevels int) {
	v.Numeric++
	v.addDistinct(raw, maxLevels)
}

// AddText records a token that is not a number
func (v *ColumnVote) AddText(raw []byte, maxLevels int) {
	v.Text++
	v.addDistinct(raw, maxLevels)
}

func (v *ColumnVote) addDistinct(raw []byte, maxLevels int) {
	if v.Overflow {
		return
	}
	if v.Distinct == nil {
		v.Distinct = make(map[string]struct{})
	}
	if _, ok := v.Distinct[string(raw)]; ok {
		return
	}
	if len(v.Distinct) >= maxLevels {
		v.overflow()
		return
	}
	v.Distinct[string(raw)] = struct{}{}
}

func (v *ColumnVote) overflow() {
	v.Overflow = true
	v.Distinct = nil
}

// merge folds o into v
func (v *ColumnVote) merge(o *ColumnVote, maxLevels int) {
	v.Numeric += o.Numeric
	v.Text += o.Text
	v.Missing += o.Missing

	if v.Overflow {
		return
	}
	if o.Overflow {
		v.overflow()
		return
	}
	if len(o.Distinct) == 0 {
		return
	}
	if v.Distinct == nil {
		v.Distinct = make(map[string]struct{}, len(o.Distinct))
	}
	for tok := range o.Distinct {
		v.Distinct[tok] = struct{}{}
	}
	if len(v.Distinct) > maxLevels {
		v.overflow()
	}
}

// ChunkVote is the complete vote of one chunk, or of several merged chunks.
type ChunkVote struct {
	Columns []ColumnVote
	// MaxSparseIndex is the largest pair index seen in sparse input
	MaxSparseIndex int
	// Rows is the number of logical rows voted on
	Rows int64
}

// NewChunkVote creates an empty vote sized for width columns
func NewChunkVote(width int) *ChunkVote {
	return &ChunkVote{Columns: make([]ColumnVote, width)}
}

// Column returns the vote of column i, widening the vote if needed
func (c *ChunkVote) Column(i int) *ColumnVote {
	if i >= len(c.Columns) {
		c.Columns = append(c.Columns, make([]ColumnVote, i+1-len(c.Columns))...)
	}
	return &c.Columns[i]
}

// Merge folds o into c. o is not modified.
func (c *ChunkVote) Merge(o *ChunkVote, maxLevels int) {
	if o == nil {
		return
	}
	if len(o.Columns) > 0 {
		c.Column(len(o.Columns) - 1)
	}
	for i := range o.Columns {
		c.Columns[i].merge(&o.Columns[i], maxLevels)
	}
	if o.MaxSparseIndex > c.MaxSparseIndex {
		c.MaxSparseIndex = o.MaxSparseIndex
	}
	c.Rows += o.Rows
}

// MergeVotes merges chunk votes in any order or grouping into a new vote.
// The inputs are left untouched.
func MergeVotes(maxLevels int, votes ...*ChunkVote) *ChunkVote {
	out := NewChunkVote(0)
	for _, v := range votes {
		out.Merge(v, maxLevels)
	}
	return out
}
