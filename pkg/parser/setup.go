package parser

import (
	"github.com/ajitpratap0/chunkframe/pkg/config"
	"github.com/ajitpratap0/chunkframe/pkg/schema"
	stringpool "github.com/ajitpratap0/chunkframe/pkg/strings"
)

// Setup is the input-wide layout chosen before any chunk is typed
type Setup struct {
	Format    schema.Format
	Separator byte
	Quote     byte
	// Names holds the header row when one was consumed
	Names []string
}

// SetupOptions are the parser options GuessSetup needs
type SetupOptions struct {
	Separators []byte
	Quote      byte
	Format     string
	Header     bool
	SampleRows int
}

// SetupOptionsFrom extracts the setup options from a parse configuration
func SetupOptionsFrom(cfg *config.ParseConfig) SetupOptions {
	return SetupOptions{
		Separators: cfg.SeparatorBytes(),
		Quote:      cfg.QuoteByte(),
		Format:     cfg.Format,
		Header:     cfg.Header,
		SampleRows: cfg.SetupSampleRows,
	}
}

// GuessSetup picks the format and separator from the first logical rows and,
// when a header is expected, consumes the first row as column names. The
// returned blocks no longer contain the header row.
//
// The separator is the first configured non-space separator met in the
// sample outside quotes. Space is chosen only when no other configured
// separator occurs; with none occurring the first configured one is used.
func GuessSetup(blocks []RowBlock, opts SetupOptions) (Setup, []RowBlock) {
	setup := Setup{Format: schema.Delimited, Quote: opts.Quote}
	if len(opts.Separators) > 0 {
		setup.Separator = opts.Separators[0]
	}

	var header []byte
	if opts.Header {
		header, blocks = dropFirstRow(blocks)
	}
	sample := sampleRows(blocks, opts.SampleRows)

	switch opts.Format {
	case config.FormatSparse:
		setup.Format = schema.SparseLabeled
	case config.FormatDelimited:
	default:
		if len(sample) > 0 && isSparseRow(sample[0]) {
			setup.Format = schema.SparseLabeled
		}
	}
	if setup.Format == schema.SparseLabeled {
		setup.Separator = ' '
		setup.Quote = 0
		return setup, blocks
	}

	if len(opts.Separators) > 1 {
		probe := sample
		if header != nil {
			probe = append([][]byte{header}, sample...)
		}
		setup.Separator = guessSeparator(probe, opts.Separators, opts.Quote)
	}

	if header != nil {
		tok := NewTokenizer(setup.Separator, setup.Quote)
		tokens, _ := tok.Split(header)
		setup.Names = make([]string, len(tokens))
		for i, t := range tokens {
			setup.Names[i] = stringpool.Clone(t.Value)
		}
		tok.Release()
	}
	return setup, blocks
}

func guessSeparator(rows [][]byte, seps []byte, quote byte) byte {
	var isSep [256]bool
	hasSpace := false
	for _, s := range seps {
		if s == ' ' {
			hasSpace = true
			continue
		}
		isSep[s] = true
	}

	for _, row := range rows {
		quoted := false
		for _, c := range row {
			if quote != 0 && c == quote {
				quoted = !quoted
				continue
			}
			if !quoted && isSep[c] {
				return c
			}
		}
	}
	if hasSpace {
		for _, row := range rows {
			if hasInnerSpace(row, quote) {
				return ' '
			}
		}
	}
	return seps[0]
}

// hasInnerSpace reports whether row has a space between two tokens
func hasInnerSpace(row []byte, quote byte) bool {
	quoted := false
	seenToken := false
	for i, c := range row {
		if quote != 0 && c == quote {
			quoted = !quoted
		}
		if quoted {
			seenToken = true
			continue
		}
		if c != ' ' && c != '\t' {
			seenToken = true
			continue
		}
		if seenToken && c == ' ' && !isBlank(row[i:]) {
			return true
		}
	}
	return false
}

// isSparseRow reports whether row looks like "label index:value ..."
func isSparseRow(row []byte) bool {
	tok := NewTokenizer(' ', 0)
	defer tok.Release()

	tokens, _ := tok.Split(row)
	if len(tokens) < 2 || !IsNumeric(tokens[0].Value) {
		return false
	}
	for _, t := range tokens[1:] {
		idx, val, ok := splitPair(t.Value)
		if !ok {
			return false
		}
		if _, ok := parseIndex(idx); !ok {
			return false
		}
		if !IsNumeric(val) {
			return false
		}
	}
	return true
}

// splitPair splits "index:value" at its first colon
func splitPair(b []byte) (idx, val []byte, ok bool) {
	for i, c := range b {
		if c == ':' {
			return b[:i], b[i+1:], true
		}
	}
	return nil, nil, false
}

func sampleRows(blocks []RowBlock, n int) [][]byte {
	var rows [][]byte
	for _, b := range blocks {
		for _, r := range b.Rows {
			if len(rows) == n {
				return rows
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func dropFirstRow(blocks []RowBlock) ([]byte, []RowBlock) {
	for i, b := range blocks {
		if len(b.Rows) == 0 {
			continue
		}
		out := make([]RowBlock, len(blocks))
		copy(out, blocks)
		out[i].Rows = b.Rows[1:]
		return b.Rows[0], out
	}
	return nil, blocks
}
