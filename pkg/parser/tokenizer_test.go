package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tokenStrings(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = string(tok.Value)
	}
	return out
}

func TestTokenizerSplit(t *testing.T) {
	tests := []struct {
		name         string
		sep          byte
		row          string
		want         []string
		quoted       []int
		unterminated bool
	}{
		{name: "pipe", sep: '|', row: "1|2|3", want: []string{"1", "2", "3"}},
		{name: "comma empty tokens", sep: ',', row: "7,,8,", want: []string{"7", "", "8", ""}},
		{name: "leading empty", sep: ',', row: ",9,10", want: []string{"", "9", "10"}},
		{name: "only separators", sep: ',', row: ",,", want: []string{"", "", ""}},
		{name: "trims spaces", sep: '|', row: " 4 | 5 | 6", want: []string{"4", "5", "6"}},
		{name: "trims tabs", sep: ',', row: "\t4\t,5", want: []string{"4", "5"}},
		{name: "tab separator keeps empty", sep: '\t', row: "1\t\t2 ", want: []string{"1", "", "2"}},
		{name: "space collapses", sep: ' ', row: "  1   2 3  ", want: []string{"1", "2", "3"}},
		{name: "space single token", sep: ' ', row: "1.1", want: []string{"1.1"}},
		{name: "quoted", sep: '|', row: `15|16|"two"`, want: []string{"15", "16", "two"}, quoted: []int{2}},
		{name: "quoted keeps spaces", sep: '|', row: `17|18|" four"`, want: []string{"17", "18", " four"}, quoted: []int{2}},
		{name: "quoted with space sep", sep: ' ', row: `17 18 " four"`, want: []string{"17", "18", " four"}, quoted: []int{2}},
		{name: "quoted separator", sep: ',', row: `"a,b",c`, want: []string{"a,b", "c"}, quoted: []int{0}},
		{name: "doubled quote", sep: ',', row: `"say ""hi""",x`, want: []string{`say "hi"`, "x"}, quoted: []int{0}},
		{name: "space around quotes", sep: ',', row: ` "a" , b`, want: []string{"a", "b"}, quoted: []int{0}},
		{name: "quoted newline", sep: ',', row: "1,\"a\nb\"", want: []string{"1", "a\nb"}, quoted: []int{1}},
		{name: "empty quoted", sep: ',', row: `"",1`, want: []string{"", "1"}, quoted: []int{0}},
		{name: "unterminated", sep: ',', row: `1,"abc `, want: []string{"1", "abc "}, quoted: []int{1}, unterminated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewTokenizer(tt.sep, '"')
			defer tok.Release()

			tokens, unterminated := tok.Split([]byte(tt.row))
			assert.Equal(t, tt.want, tokenStrings(tokens))
			assert.Equal(t, tt.unterminated, unterminated)

			quoted := map[int]bool{}
			for _, q := range tt.quoted {
				quoted[q] = true
			}
			for i, tk := range tokens {
				assert.Equal(t, quoted[i], tk.Quoted, "token %d", i)
			}
		})
	}
}

func TestTokenizerQuotedValuesSurviveLaterTokens(t *testing.T) {
	tok := NewTokenizer(',', '"')
	defer tok.Release()

	tokens, _ := tok.Split([]byte(`"a""",b,"c""d",""""`))
	assert.Equal(t, []string{`a"`, "b", `c"d`, `"`}, tokenStrings(tokens))
}

func TestTokenizerReuse(t *testing.T) {
	tok := NewTokenizer(',', '"')
	defer tok.Release()

	first, _ := tok.Split([]byte("1,2,3"))
	assert.Len(t, first, 3)
	second, _ := tok.Split([]byte("x"))
	assert.Equal(t, []string{"x"}, tokenStrings(second))

	stats := scratchPool.Stats()
	assert.GreaterOrEqual(t, stats.Gets, int64(1))
}

func TestTokenizerQuoteDisabled(t *testing.T) {
	tok := NewTokenizer(',', 0)
	defer tok.Release()

	tokens, unterminated := tok.Split([]byte(`"a,b"`))
	assert.False(t, unterminated)
	assert.Equal(t, []string{`"a`, `b"`}, tokenStrings(tokens))
}
