package parser

import (
	"github.com/ajitpratap0/chunkframe/pkg/pool"
)

// Token is one field of a row. Value aliases the row unless the token was
// quoted, in which case it points into the tokenizer's scratch buffer.
type Token struct {
	Value  []byte
	Quoted bool
}

type scratch struct {
	tokens []Token
	buf    []byte
}

var scratchPool = pool.New(
	func() *scratch { return &scratch{tokens: make([]Token, 0, 32), buf: make([]byte, 0, 256)} },
	func(s *scratch) {
		s.tokens = s.tokens[:0]
		s.buf = s.buf[:0]
	},
)

// Tokenizer splits rows into tokens. A Tokenizer is not safe for concurrent
// use; each worker takes its own and releases it when the chunk is done.
type Tokenizer struct {
	Sep   byte
	Quote byte
	s     *scratch
}

// NewTokenizer takes pooled scratch state for a tokenizer. quote 0 disables
// quoting.
func NewTokenizer(sep, quote byte) *Tokenizer {
	return &Tokenizer{Sep: sep, Quote: quote, s: scratchPool.Get()}
}

// Release returns the scratch state to the pool. Tokens returned earlier are
// invalid afterwards.
func (t *Tokenizer) Release() {
	if t.s != nil {
		scratchPool.Put(t.s)
		t.s = nil
	}
}

// Split tokenizes one row. The returned slice and any quoted values are
// reused by the next call. unterminated is true when the row ended inside a
// quoted section; the open token is closed at the end of the row.
func (t *Tokenizer) Split(row []byte) (tokens []Token, unterminated bool) {
	s := t.s
	if s == nil {
		s = &scratch{}
		t.s = s
	}
	s.tokens = s.tokens[:0]
	// quoted content never outgrows the row, so values stay valid while buf grows
	if cap(s.buf) < len(row) {
		s.buf = make([]byte, 0, len(row))
	}
	s.buf = s.buf[:0]

	collapse := t.Sep == ' '
	i := 0
	for {
		if collapse {
			for i < len(row) && t.isSpace(row[i]) {
				i++
			}
			if i == len(row) {
				break
			}
		}

		var tok Token
		var open bool
		tok, i, open = t.next(row, i)
		unterminated = unterminated || open
		s.tokens = append(s.tokens, tok)

		if i >= len(row) {
			break
		}
		// row[i] is the separator
		i++
		if !collapse && i == len(row) {
			s.tokens = append(s.tokens, Token{Value: row[i:i]})
			break
		}
	}
	return s.tokens, unterminated
}

// next reads the token starting at i and returns the index of the separator
// that ended it, or len(row).
func (t *Tokenizer) next(row []byte, i int) (Token, int, bool) {
	for i < len(row) && row[i] != t.Sep && t.isSpace(row[i]) {
		i++
	}
	start := i
	for i < len(row) && row[i] != t.Sep && (t.Quote == 0 || row[i] != t.Quote) {
		i++
	}
	if i == len(row) || row[i] == t.Sep {
		return Token{Value: t.trimRight(row[start:i], 0)}, i, false
	}

	// quoted section: copy the value into scratch space
	s := t.s
	off := len(s.buf)
	s.buf = append(s.buf, row[start:i]...)
	quotedEnd := len(s.buf)
	open := false
	for i < len(row) {
		c := row[i]
		switch {
		case open && c == t.Quote:
			if i+1 < len(row) && row[i+1] == t.Quote {
				s.buf = append(s.buf, c)
				i += 2
				continue
			}
			open = false
			quotedEnd = len(s.buf)
		case open:
			s.buf = append(s.buf, c)
		case c == t.Sep:
			return Token{Value: t.trimRight(s.buf[off:], quotedEnd-off), Quoted: true}, i, false
		case c == t.Quote:
			open = true
		default:
			s.buf = append(s.buf, c)
		}
		i++
	}
	if open {
		quotedEnd = len(s.buf)
	}
	return Token{Value: t.trimRight(s.buf[off:], quotedEnd-off), Quoted: true}, i, open
}

// trimRight drops trailing spaces from v, never cutting below keep
func (t *Tokenizer) trimRight(v []byte, keep int) []byte {
	end := len(v)
	for end > keep && t.isSpace(v[end-1]) {
		end--
	}
	return v[:end]
}

func (t *Tokenizer) isSpace(c byte) bool {
	return c == ' ' || (c == '\t' && t.Sep != '\t')
}
