package parser

import (
	"errors"
	"strconv"

	stringpool "github.com/ajitpratap0/chunkframe/pkg/strings"
)

// IsNumeric reports whether b matches [+-]? (d+ (. d*)? | . d+) ([eE] [+-]? d+)?
func IsNumeric(b []byte) bool {
	i, n := 0, len(b)
	if i < n && (b[i] == '+' || b[i] == '-') {
		i++
	}
	intDigits := 0
	for i < n && isDigit(b[i]) {
		i++
		intDigits++
	}
	fracDigits := 0
	if i < n && b[i] == '.' {
		i++
		for i < n && isDigit(b[i]) {
			i++
			fracDigits++
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return false
	}
	if i < n && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < n && (b[i] == '+' || b[i] == '-') {
			i++
		}
		expDigits := 0
		for i < n && isDigit(b[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == n
}

// ParseNumber parses a numeric token. Literals out of float64 range become
// signed infinity.
func ParseNumber(b []byte) (float64, bool) {
	if !IsNumeric(b) {
		return 0, false
	}
	f, err := strconv.ParseFloat(stringpool.BytesToString(b), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// parseIndex parses the 1-based column index of a sparse pair
func parseIndex(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if !isDigit(c) {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > maxSparseIndex {
			return 0, false
		}
	}
	return n, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
