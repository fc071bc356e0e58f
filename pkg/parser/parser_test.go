package parser

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/chunkframe/pkg/columnar"
	"github.com/ajitpratap0/chunkframe/pkg/config"
	"github.com/ajitpratap0/chunkframe/pkg/schema"
)

var NaN = math.NaN()

// parseChunks runs every stage serially over in-memory chunks
func parseChunks(t *testing.T, chunks []string, mutate func(*config.ParseConfig)) *columnar.Frame {
	t.Helper()
	cfg := config.NewDefault("test").Parse
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	quote := cfg.QuoteByte()
	logger := zaptest.NewLogger(t)

	frags := make([]Fragment, len(chunks))
	for i, c := range chunks {
		frags[i] = Scan([]byte(c), i == 0, false, quote)
	}
	blocks, rstats := Reconcile(frags, quote)
	setup, blocks := GuessSetup(blocks, SetupOptionsFrom(&cfg))

	g := NewGuesser(setup, cfg.NAStrings, cfg.MaxCategoricalLevels, logger)
	votes := make([]*schema.ChunkVote, len(blocks))
	for i, b := range blocks {
		votes[i] = g.Vote(b)
	}
	s, err := schema.Build(schema.MergeVotes(cfg.MaxCategoricalLevels, votes...), schema.Options{
		Format:               setup.Format,
		Separator:            setup.Separator,
		Names:                setup.Names,
		Forced:               cfg.ForcedColumns(),
		MaxCategoricalLevels: cfg.MaxCategoricalLevels,
		Logger:               logger,
	})
	require.NoError(t, err)

	m := NewMaterializer(s, setup.Quote, cfg.NAStrings, logger)
	stats := columnar.ParseStats{Chunks: len(chunks), Stitched: rstats.Stitched, Rescanned: rstats.Rescanned}
	segs := make([]columnar.Segment, len(blocks))
	for i, b := range blocks {
		seg, st, err := m.Chunk(b)
		require.NoError(t, err)
		segs[i] = seg
		stats.Add(st)
	}
	f, err := columnar.Assemble(s, segs, stats)
	require.NoError(t, err)
	return f
}

func parseString(t *testing.T, data string, mutate func(*config.ParseConfig)) *columnar.Frame {
	t.Helper()
	return parseChunks(t, []string{data}, mutate)
}

func assertFrame(t *testing.T, f *columnar.Frame, want [][]float64) {
	t.Helper()
	require.Equal(t, len(want), f.NumRows(), "rows")
	require.Equal(t, len(want[0]), f.NumCols(), "columns")
	for i, row := range want {
		for j, exp := range row {
			got := f.At(i, j)
			if math.IsNaN(exp) {
				assert.True(t, math.IsNaN(got), "row %d col %d: want NaN, got %v", i, j, got)
				continue
			}
			assert.InDelta(t, exp, got, 1e-9*math.Max(1, math.Abs(exp)), "row %d col %d", i, j)
		}
	}
}

// withSeparator swaps the placeholder '|' for sep
func withSeparator(sep byte, data []string) []string {
	out := make([]string, len(data))
	for i, d := range data {
		out[i] = strings.ReplaceAll(d, "|", string(sep))
	}
	return out
}

var separators = []byte{'|', ',', ' '}

var basicData = []string{
	"1|2|3\n1|2|3",
	"4|5|6",
	"4|5.2|",
	"asdf|qwer|1",
	"1.1",
	"1.1|2.1|3.4",
}

var basicExpected = [][]float64{
	{1.0, 2.0, 3.0},
	{1.0, 2.0, 3.0},
	{4.0, 5.0, 6.0},
	{4.0, 5.2, NaN},
	{NaN, NaN, 1.0},
	{1.1, NaN, NaN},
	{1.1, 2.1, 3.4},
}

func TestParseBasic(t *testing.T) {
	for _, sep := range separators {
		for _, eol := range []string{"\n", "\r\n"} {
			data := withSeparator(sep, basicData)
			input := strings.Join(data, eol) + eol
			if eol == "\r\n" {
				input = strings.ReplaceAll(input, "3\n1", "3\r\n1")
			}

			f := parseString(t, input, nil)
			assertFrame(t, f, basicExpected)
			assert.Equal(t, schema.Numeric, f.Column(0).Type)
			assert.Equal(t, schema.Numeric, f.Column(1).Type)
		}
	}
}

var boundaryChunks = []string{
	"1|2|3\n1|2|3\n",
	"1|2|3\n1|2", "|3\n1|1|1\n",
	"2|2|2\n2|3|", "4\n3|3|3\n",
	"3|4|5\n5",
	".5|2|3\n5.", "5|2|3\n55e-", "1|2.0|3.0\n55e", "-1|2.0|3.0\n55", "e-1|2.0|3.0\n",
}

func TestParseChunkBoundaries(t *testing.T) {
	want := [][]float64{
		{1.0, 2.0, 3.0},
		{1.0, 2.0, 3.0},
		{1.0, 2.0, 3.0},
		{1.0, 2.0, 3.0},
		{1.0, 1.0, 1.0},
		{2.0, 2.0, 2.0},
		{2.0, 3.0, 4.0},
		{3.0, 3.0, 3.0},
		{3.0, 4.0, 5.0},
		{5.5, 2.0, 3.0},
		{5.5, 2.0, 3.0},
		{5.5, 2.0, 3.0},
		{5.5, 2.0, 3.0},
		{5.5, 2.0, 3.0},
	}
	for _, sep := range separators {
		f := parseChunks(t, withSeparator(sep, boundaryChunks), nil)
		assertFrame(t, f, want)
		assert.Zero(t, f.Stats.MalformedNumeric)
		assert.Positive(t, f.Stats.Stitched)
	}
}

func TestParseChunkBoundariesMixedLineEndings(t *testing.T) {
	chunks := []string{
		"1|2|3\n4|5|6\n7|8|9",
		"\r\n10|11|12\n13|14|15",
		"\n16|17|18\r",
		"\n19|20|21\n",
		"22|23|24\n25|26|27\r\n",
		"28|29|30",
	}
	var want [][]float64
	for i := 0; i < 10; i++ {
		want = append(want, []float64{float64(3*i + 1), float64(3*i + 2), float64(3*i + 3)})
	}
	for _, sep := range separators {
		f := parseChunks(t, withSeparator(sep, chunks), nil)
		assertFrame(t, f, want)
	}
}

const nondecimalData = "1| 2|one\n" +
	"3| 4|two\n" +
	"5| 6|three\n" +
	"7| 8|one\n" +
	"9| 10|two\n" +
	"11|12|three\n" +
	"13|14|one\n" +
	"15|16|\"two\"\n" +
	"17|18|\" four\"\n" +
	"19|20| three\n"

func TestParseNondecimalColumns(t *testing.T) {
	want := [][]float64{
		{1, 2, 1},
		{3, 4, 3},
		{5, 6, 2},
		{7, 8, 1},
		{9, 10, 3},
		{11, 12, 2},
		{13, 14, 1},
		{15, 16, 3},
		{17, 18, 0},
		{19, 20, 2},
	}
	labels := []string{"one", "two", "three", "one", "two", "three", "one", "two", " four", "three"}

	for _, sep := range separators {
		f := parseString(t, withSeparator(sep, []string{nondecimalData})[0], nil)
		col := f.Column(2)
		require.Equal(t, schema.Categorical, col.Type)
		assert.Equal(t, []string{" four", "one", "three", "two"}, col.Domain.Levels())
		assertFrame(t, f, want)
		for i, l := range labels {
			got, ok := f.Label(i, 2)
			require.True(t, ok)
			assert.Equal(t, l, got)
		}
	}
}

func TestParseNumberFormats(t *testing.T) {
	data := "+.6e102|+.7e102|+.8e102\n.6e102|.7e102|.8e102\n"
	want := [][]float64{
		{.6e102, .7e102, .8e102},
		{.6e102, .7e102, .8e102},
	}
	for _, sep := range separators {
		f := parseString(t, withSeparator(sep, []string{data})[0], nil)
		assertFrame(t, f, want)
	}
}

func TestParseMultipleNondecimalColumns(t *testing.T) {
	data := "foo| 2|one\n" +
		"bar| 4|two\n" +
		"foo| 6|three\n" +
		"bar| 8|one\n" +
		"bar|ten|two\n" +
		"bar| 12|three\n" +
		"foobar|14|one\n"
	want := [][]float64{
		{1, 2, 0},
		{0, 4, 2},
		{1, 6, 1},
		{0, 8, 0},
		{0, NaN, 2},
		{0, 12, 1},
		{2, 14, 0},
	}
	for _, sep := range separators {
		f := parseString(t, withSeparator(sep, []string{data})[0], nil)
		assert.Equal(t, []string{"one", "three", "two"}, f.Column(2).Domain.Levels())
		assert.Equal(t, []string{"bar", "foo", "foobar"}, f.Column(0).Domain.Levels())
		assert.Equal(t, schema.Numeric, f.Column(1).Type)
		assertFrame(t, f, want)
		assert.Equal(t, int64(1), f.Stats.MalformedNumeric)
	}
}

func TestParseEmptyColumnValues(t *testing.T) {
	data := "1,2,3,foo\n" +
		"4,5,6,bar\n" +
		"7,,8,\n" +
		",9,10\n" +
		"11,,,\n" +
		"0,0,0,z\n" +
		"0,0,0,z\n" +
		"0,0,0,z\n" +
		"0,0,0,z\n" +
		"0,0,0,z\n"
	want := [][]float64{
		{1, 2, 3, 1},
		{4, 5, 6, 0},
		{7, NaN, 8, NaN},
		{NaN, 9, 10, NaN},
		{11, NaN, NaN, NaN},
		{0, 0, 0, 2},
		{0, 0, 0, 2},
		{0, 0, 0, 2},
		{0, 0, 0, 2},
		{0, 0, 0, 2},
	}

	f := parseString(t, data, nil)
	assert.Equal(t, []string{"bar", "foo", "z"}, f.Column(3).Domain.Levels())
	assertFrame(t, f, want)
	assert.Equal(t, int64(1), f.Stats.RowWidthMismatch)
}

func TestParseBasicSpaceAsSeparator(t *testing.T) {
	data := []string{
		" 1|2|3",
		" 4 | 5 | 6",
		"4|5.2 ",
		"asdf|qwer|1",
		"1.1",
		"1.1|2.1|3.4",
	}
	want := [][]float64{
		{1.0, 2.0, 3.0},
		{4.0, 5.0, 6.0},
		{4.0, 5.2, NaN},
		{NaN, NaN, 1.0},
		{1.1, NaN, NaN},
		{1.1, 2.1, 3.4},
	}
	for _, sep := range separators {
		input := strings.Join(withSeparator(sep, data), "\n") + "\n"
		f := parseString(t, input, nil)
		assertFrame(t, f, want)
	}
}

func TestParseSVMLight(t *testing.T) {
	data := " 1 2:.2 5:.5 9:.9\n\n" +
		"-1 7:.7 8:.8 9:.9\n\n" +
		"+1 1:.1 5:.5 6:.6\n\n"
	want := [][]float64{
		{1., .0, .2, .0, .0, .5, .0, .0, .0, .9},
		{-1., .0, .0, .0, .0, .0, .0, .7, .8, .9},
		{1., .1, .0, .0, .0, .5, .6, .0, .0, .0},
	}

	f := parseString(t, data, nil)
	assert.Equal(t, schema.SparseLabeled, f.Schema().Format)
	assertFrame(t, f, want)

	// the widest index may only appear in a late chunk
	f = parseChunks(t, []string{" 1 2:.2\n-1 3:", ".3\n1 1:1 12:", "2\n"}, nil)
	require.Equal(t, 13, f.NumCols())
	assert.Equal(t, 0.3, f.At(1, 3))
	assert.Equal(t, 2.0, f.At(2, 12))
	assert.Equal(t, 0.0, f.At(0, 12))
}

func TestParseSVMLightMalformedPairs(t *testing.T) {
	f := parseString(t, "1 2:.2 0:5 x 3:abc\nfoo 1:1\n", func(c *config.ParseConfig) {
		c.Format = config.FormatSparse
	})
	assertFrame(t, f, [][]float64{
		{1, 0, .2, NaN},
		{NaN, 1, 0, 0},
	})
	assert.Equal(t, int64(2), f.Stats.MalformedPairs)
	assert.Equal(t, int64(2), f.Stats.MalformedNumeric)
}

func TestParseNAStrings(t *testing.T) {
	data := "1,NA,x\n2,3,NA\n?,4,y\n"
	f := parseString(t, data, func(c *config.ParseConfig) {
		c.NAStrings = []string{"NA", "?"}
	})
	assertFrame(t, f, [][]float64{
		{1, NaN, 0},
		{2, 3, NaN},
		{NaN, 4, 1},
	})
	assert.Equal(t, schema.Numeric, f.Column(0).Type)
	assert.Equal(t, schema.Numeric, f.Column(1).Type)
	assert.Equal(t, []string{"x", "y"}, f.Column(2).Domain.Levels())
	assert.Zero(t, f.Stats.MalformedNumeric)
}

func TestParseQuotedNumbersAreText(t *testing.T) {
	f := parseString(t, "\"1\",a\n\"2\",b\n3,c\n", nil)
	assert.Equal(t, schema.Categorical, f.Column(0).Type)
	assert.Equal(t, []string{"1", "2", "3"}, f.Column(0).Domain.Levels())
	assertFrame(t, f, [][]float64{{0, 0}, {1, 1}, {2, 2}})
}

func TestParseForceCategorical(t *testing.T) {
	f := parseString(t, "10,1\n2,1\n10,2\n", func(c *config.ParseConfig) {
		c.ForceCategorical = []int{0}
	})
	col := f.Column(0)
	require.Equal(t, schema.Categorical, col.Type)
	assert.Equal(t, []string{"10", "2"}, col.Domain.Levels())
	assertFrame(t, f, [][]float64{{0, 1}, {1, 1}, {0, 2}})
}

func TestParseLevelLimitDemotes(t *testing.T) {
	f := parseChunks(t, []string{"a,1\nb,2\n", "c,3\n"}, func(c *config.ParseConfig) {
		c.MaxCategoricalLevels = 2
	})
	assert.Equal(t, schema.Numeric, f.Column(0).Type)
	assertFrame(t, f, [][]float64{{NaN, 1}, {NaN, 2}, {NaN, 3}})
}

func TestParseHeader(t *testing.T) {
	f := parseChunks(t, []string{"id;na", "me;score\n1;a;", "2.5\n2;b;3\n"}, func(c *config.ParseConfig) {
		c.Header = true
	})
	assert.Equal(t, []string{"id", "name", "score"}, f.Schema().Names())
	assertFrame(t, f, [][]float64{{1, 0, 2.5}, {2, 1, 3}})

	col, ok := f.ColumnByName("score")
	require.True(t, ok)
	assert.Equal(t, 3.0, col.Values[1])
}

func TestParseWiderRowsExpandColumns(t *testing.T) {
	f := parseChunks(t, []string{"1,2\n3,4,5,6\n", "7\n"}, nil)
	assertFrame(t, f, [][]float64{
		{1, 2, NaN, NaN},
		{3, 4, 5, 6},
		{7, NaN, NaN, NaN},
	})
	assert.Equal(t, int64(2), f.Stats.RowWidthMismatch)
}

func TestParseQuotedFieldsAcrossChunks(t *testing.T) {
	f := parseChunks(t, []string{"1,\"a", "\nb\",x\n2,\"c,", "d\",y\n"}, nil)
	require.Equal(t, 2, f.NumRows())
	assert.Equal(t, []string{"a\nb", "c,d"}, f.Column(1).Domain.Levels())
	assert.Equal(t, 2, f.Stats.Rescanned)
}

func TestParseUnterminatedQuote(t *testing.T) {
	f := parseString(t, "1,x\n2,\"open\n", nil)
	assert.Equal(t, int64(1), f.Stats.UnterminatedQuote)
	require.Equal(t, 2, f.NumRows())
}

func TestParseEmptyInput(t *testing.T) {
	f := parseChunks(t, []string{"", "\n\n", "  \n"}, nil)
	assert.Equal(t, 0, f.NumRows())
	assert.Equal(t, 0, f.NumCols())
}

// cuts returns data split at the given byte offsets
func cuts(data string, at ...int) []string {
	var out []string
	prev := 0
	for _, a := range at {
		out = append(out, data[prev:a])
		prev = a
	}
	return append(out, data[prev:])
}

func TestChunkInvariance(t *testing.T) {
	inputs := map[string]string{
		"basic":       strings.Join(basicData, "\n") + "\n",
		"basic crlf":  strings.Join(basicData, "\r\n") + "\r\n",
		"boundaries":  strings.Join(boundaryChunks, ""),
		"nondecimal":  nondecimalData,
		"quoted":      "1,\"a\nb\",\"x,\"\"y\"\"\"\r\n2,\"c\",z\n3,,\"\"\n",
		"svmlight":    " 1 2:.2 5:.5 9:.9\n\n-1 7:.7 8:.8 9:.9\n+1 1:.1 5:.5 6:.6\n",
		"mixed types": "a,1e5,\"q\"\n1,-2.5e-3,r\nb,,s\r4,.5,\n",
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			whole := parseString(t, data, nil)
			want := whole.Checksum()

			for i := 0; i <= len(data); i++ {
				f := parseChunks(t, cuts(data, i), nil)
				require.Equal(t, want, f.Checksum(), "cut at %d", i)
			}
			if len(data) > 80 {
				return
			}
			for i := 0; i <= len(data); i++ {
				for j := i; j <= len(data); j++ {
					f := parseChunks(t, cuts(data, i, j), nil)
					require.Equal(t, want, f.Checksum(), "cuts at %d, %d", i, j)
				}
			}
		})
	}
}

func TestChunkInvarianceDoubleCuts(t *testing.T) {
	data := "1|2|3\n5.5|2|3\n55e-1|\"a\nb\"|3.0\r\nx|y|\n"
	want := parseString(t, data, nil).Checksum()
	for i := 0; i <= len(data); i++ {
		for j := i; j <= len(data); j++ {
			f := parseChunks(t, cuts(data, i, j), nil)
			require.Equal(t, want, f.Checksum(), "cuts at %d, %d", i, j)
		}
	}
}

func TestSeparatorIndependence(t *testing.T) {
	inputs := []string{
		strings.Join(basicData, "\n") + "\n",
		nondecimalData,
		"foo|1|\"a b\"\nbar|2|c\n",
	}
	for _, data := range inputs {
		want := parseString(t, data, nil).Checksum()
		for _, sep := range []byte{',', ' ', ';', '\t'} {
			f := parseString(t, withSeparator(sep, []string{data})[0], nil)
			assert.Equal(t, want, f.Checksum(), "separator %q", sep)
		}
	}
}

func TestDomainDeterminism(t *testing.T) {
	data := "z\nb\na\nb\nq\n"
	want := []string{"a", "b", "q", "z"}
	for i := 0; i <= len(data); i++ {
		f := parseChunks(t, cuts(data, i), nil)
		require.Equal(t, want, f.Column(0).Domain.Levels(), "cut at %d", i)
		assert.Equal(t, []float64{3, 1, 0, 1, 2}, f.Column(0).Values)
	}
}
