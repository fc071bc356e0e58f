package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/chunkframe/pkg/parseerrors"
)

func vote(numeric, text []string, missing int) ColumnVote {
	var v ColumnVote
	for _, n := range numeric {
		v.AddNumeric([]byte(n), 1000)
	}
	for _, t := range text {
		v.AddText([]byte(t), 1000)
	}
	for i := 0; i < missing; i++ {
		v.AddMissing()
	}
	return v
}

func TestDomain(t *testing.T) {
	d := NewDomain([]string{"two", " four", "one", "three", "two"})

	assert.Equal(t, []string{" four", "one", "three", "two"}, d.Levels())
	assert.Equal(t, 4, d.Len())

	idx, ok := d.Index([]byte("three"))
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "three", d.Level(idx))

	_, ok = d.Index([]byte("five"))
	assert.False(t, ok)

	assert.Equal(t, "", d.Level(-1))
	assert.Equal(t, "", d.Level(4))

	var nilDomain *Domain
	assert.Equal(t, 0, nilDomain.Len())
	assert.Equal(t, "", nilDomain.Level(0))
	assert.Nil(t, nilDomain.Levels())
	_, ok = nilDomain.Index([]byte("one"))
	assert.False(t, ok)
}

func TestColumnVoteKind(t *testing.T) {
	v := vote([]string{"1", "2"}, nil, 1)
	assert.Equal(t, VoteNumeric, v.Kind())

	v.AddText([]byte("x"), 10)
	assert.Equal(t, VoteCategorical, v.Kind())
	assert.Len(t, v.Distinct, 3)
}

func TestColumnVoteOverflow(t *testing.T) {
	var v ColumnVote
	v.AddText([]byte("a"), 2)
	v.AddText([]byte("b"), 2)
	v.AddText([]byte("a"), 2)
	assert.False(t, v.Overflow)

	v.AddText([]byte("c"), 2)
	assert.True(t, v.Overflow)
	assert.Nil(t, v.Distinct)
	assert.Equal(t, int64(4), v.Text)
}

func TestMergeVotes(t *testing.T) {
	a := &ChunkVote{Columns: []ColumnVote{vote([]string{"1"}, []string{"foo"}, 0)}, Rows: 2}
	b := &ChunkVote{Columns: []ColumnVote{vote(nil, []string{"bar"}, 1), vote([]string{"3"}, nil, 0)}, Rows: 3, MaxSparseIndex: 7}
	c := &ChunkVote{Columns: []ColumnVote{vote(nil, []string{"foo", "baz"}, 0)}, Rows: 1, MaxSparseIndex: 4}

	orders := [][]*ChunkVote{{a, b, c}, {c, b, a}, {b, a, c}}
	var first *ChunkVote
	for _, order := range orders {
		merged := MergeVotes(10, order...)
		require.Len(t, merged.Columns, 2)
		assert.Equal(t, int64(6), merged.Rows)
		assert.Equal(t, 7, merged.MaxSparseIndex)
		assert.Equal(t, int64(1), merged.Columns[0].Numeric)
		assert.Equal(t, int64(4), merged.Columns[0].Text)
		assert.Equal(t, int64(1), merged.Columns[0].Missing)
		if first == nil {
			first = merged
			continue
		}
		assert.Equal(t, first, merged)
	}

	// grouping does not matter either
	left := MergeVotes(10, MergeVotes(10, a, b), c)
	right := MergeVotes(10, a, MergeVotes(10, b, c))
	assert.Equal(t, left, right)

	// inputs are untouched
	assert.Len(t, a.Columns, 1)
	assert.Len(t, a.Columns[0].Distinct, 2)
}

func TestMergeVotesOverflow(t *testing.T) {
	a := &ChunkVote{Columns: []ColumnVote{vote(nil, []string{"a", "b"}, 0)}}
	b := &ChunkVote{Columns: []ColumnVote{vote(nil, []string{"c"}, 0)}}

	merged := MergeVotes(3, a, b)
	assert.False(t, merged.Columns[0].Overflow)

	merged = MergeVotes(2, a, b)
	assert.True(t, merged.Columns[0].Overflow)
	assert.Nil(t, merged.Columns[0].Distinct)
}

func TestBuildDelimited(t *testing.T) {
	v := &ChunkVote{Columns: []ColumnVote{
		vote(nil, []string{"foo", "bar", "foobar"}, 0), // text only
		vote([]string{"1", "2"}, []string{"ten"}, 0),   // numeric majority
		vote([]string{"1"}, []string{"one", "two"}, 0), // text majority
		vote([]string{"1"}, []string{"x"}, 0),          // tie
		vote(nil, nil, 3),                              // all missing
		vote([]string{"4", "5"}, nil, 0),               // numeric
	}}

	s, err := Build(v, Options{Format: Delimited, Separator: '|', MaxCategoricalLevels: 10})
	require.NoError(t, err)
	require.Equal(t, 6, s.NumCols())
	assert.Equal(t, "|", s.Separator)

	types := make([]ColumnType, s.NumCols())
	for i, c := range s.Columns {
		types[i] = c.Type
	}
	assert.Equal(t, []ColumnType{Categorical, Numeric, Categorical, Categorical, Numeric, Numeric}, types)

	assert.Equal(t, []string{"bar", "foo", "foobar"}, s.Columns[0].Domain.Levels())
	assert.Equal(t, []string{"1", "one", "two"}, s.Columns[2].Domain.Levels())
	assert.Nil(t, s.Columns[1].Domain)
	assert.Equal(t, []string{"C1", "C2", "C3", "C4", "C5", "C6"}, s.Names())
}

func TestBuildForced(t *testing.T) {
	v := &ChunkVote{Columns: []ColumnVote{vote([]string{"3", "1", "2", "1"}, nil, 0)}}

	s, err := Build(v, Options{Format: Delimited, Forced: map[int]bool{0: true}, MaxCategoricalLevels: 10})
	require.NoError(t, err)
	assert.Equal(t, Categorical, s.Columns[0].Type)
	assert.Equal(t, []string{"1", "2", "3"}, s.Columns[0].Domain.Levels())
}

func TestBuildOverflow(t *testing.T) {
	col := vote(nil, []string{"a", "b", "c"}, 0)
	col.Distinct = nil
	col.Overflow = true
	v := &ChunkVote{Columns: []ColumnVote{col}}

	core, logs := observer.New(zap.WarnLevel)
	s, err := Build(v, Options{Format: Delimited, MaxCategoricalLevels: 2, Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, Numeric, s.Columns[0].Type)
	assert.Equal(t, 1, logs.FilterMessage("categorical column exceeds the level limit, demoting to numeric").Len())

	_, err = Build(v, Options{Format: Delimited, MaxCategoricalLevels: 2, Forced: map[int]bool{0: true}})
	require.Error(t, err)
	assert.True(t, parseerrors.IsType(err, parseerrors.ErrorTypeValidation))
}

func TestBuildNames(t *testing.T) {
	v := &ChunkVote{Columns: []ColumnVote{vote([]string{"1"}, nil, 0)}}

	s, err := Build(v, Options{Format: Delimited, Names: []string{"id", "", "price"}, MaxCategoricalLevels: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "C2", "price"}, s.Names())
	assert.Equal(t, "C12", DefaultName(11))
	assert.Equal(t, Numeric, s.Columns[2].Type)
}

func TestBuildSparse(t *testing.T) {
	v := &ChunkVote{MaxSparseIndex: 9}

	s, err := Build(v, Options{Format: SparseLabeled, MaxCategoricalLevels: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, s.NumCols())
	assert.Equal(t, byte(0), s.Sep())
	for _, c := range s.Columns {
		assert.Equal(t, Numeric, c.Type)
	}

	_, err = Build(v, Options{Format: SparseLabeled, Forced: map[int]bool{1: true}})
	assert.True(t, parseerrors.IsType(err, parseerrors.ErrorTypeValidation))
}

func TestSchemaJSON(t *testing.T) {
	s := &Schema{
		Format:    Delimited,
		Separator: ",",
		Columns: []Column{
			{Name: "C1", Type: Categorical, Domain: NewDomain([]string{"b", "a"})},
			{Name: "C2", Type: Numeric},
		},
	}

	data, err := s.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type": "categorical"`)
	assert.Contains(t, string(data), `"format": "delimited"`)

	decoded, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, Delimited, decoded.Format)
	assert.Equal(t, []string{"C1", "C2"}, decoded.Names())
	assert.Equal(t, []string{"a", "b"}, decoded.Columns[0].Domain.Levels())
	assert.Nil(t, decoded.Columns[1].Domain)
	assert.Equal(t, Numeric, decoded.Columns[1].Type)
}
