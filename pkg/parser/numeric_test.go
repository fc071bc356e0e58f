package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNumeric(t *testing.T) {
	valid := []string{"1", "-1", "+1", "1.", ".5", "5.5", "55e-1", "+.6e102", ".6E102", "1e5", "1E+5", "007", "-0.0"}
	invalid := []string{"", "+", "-", ".", "e5", "1e", "55e-", "1e+", "1.2.3", "1,5", "0x10", "inf", "NaN", "1_000", " 1", "1 ", "--1", "asdf", "5.5.", "1e5.5"}

	for _, s := range valid {
		assert.True(t, IsNumeric([]byte(s)), s)
	}
	for _, s := range invalid {
		assert.False(t, IsNumeric([]byte(s)), s)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1", 1},
		{"-1", -1},
		{"5.", 5},
		{".5", 0.5},
		{"55e-1", 5.5},
		{"+.6e102", .6e102},
		{".7e102", .7e102},
		{"2.0", 2},
	}
	for _, tt := range tests {
		got, ok := ParseNumber([]byte(tt.in))
		assert.True(t, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	got, ok := ParseNumber([]byte("1e400"))
	assert.True(t, ok)
	assert.True(t, math.IsInf(got, 1))

	got, ok = ParseNumber([]byte("-1e400"))
	assert.True(t, ok)
	assert.True(t, math.IsInf(got, -1))

	_, ok = ParseNumber([]byte("Inf"))
	assert.False(t, ok)
}

func TestParseIndex(t *testing.T) {
	k, ok := parseIndex([]byte("12"))
	assert.True(t, ok)
	assert.Equal(t, 12, k)

	for _, s := range []string{"", "-1", "1.5", "a", "99999999999"} {
		_, ok := parseIndex([]byte(s))
		assert.False(t, ok, s)
	}
}
