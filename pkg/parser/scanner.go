package parser

// FragmentKind tells whether a chunk contained a row terminator
type FragmentKind uint8

const (
	// FragmentBounded chunks contain at least one row terminator
	FragmentBounded FragmentKind = iota
	// FragmentSpanning chunks lie entirely inside one row
	FragmentSpanning
)

// String returns the name of the kind
func (k FragmentKind) String() string {
	switch k {
	case FragmentBounded:
		return "bounded"
	case FragmentSpanning:
		return "spanning"
	default:
		return "unknown"
	}
}

// Fragment is the row structure of a single chunk, found without looking at
// any other chunk.
//
// Leading holds the bytes before the first terminator, which belong to a row
// that started in an earlier chunk. The first chunk of an input never has a
// Leading part. Trailing holds the bytes after the last terminator. For a
// spanning fragment Leading holds the whole chunk and Rows is empty.
type Fragment struct {
	Kind     FragmentKind
	Data     []byte
	Leading  []byte
	Rows     [][]byte
	Trailing []byte
}

// Scan splits one chunk into rows. first marks the chunk that starts the
// input; inQuote is the quote state at data[0]. Rows alias data. Blank rows
// are dropped.
func Scan(data []byte, first, inQuote bool, quote byte) Fragment {
	f := Fragment{Kind: FragmentBounded, Data: data}
	quoted := inQuote
	rowStart := 0
	terminated := false

	for i := 0; i < len(data); i++ {
		c := data[i]
		if quote != 0 && c == quote {
			quoted = !quoted
			continue
		}
		if quoted || (c != '\n' && c != '\r') {
			continue
		}

		row := data[rowStart:i]
		if c == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			i++
		}
		switch {
		case !terminated && !first:
			f.Leading = row
		case !isBlank(row):
			f.Rows = append(f.Rows, row)
		}
		terminated = true
		rowStart = i + 1
	}

	if !terminated && !first {
		f.Kind = FragmentSpanning
		f.Leading = data
		return f
	}
	f.Trailing = data[rowStart:]
	return f
}

// isBlank reports whether row holds only spaces and tabs
func isBlank(row []byte) bool {
	for _, c := range row {
		if c != ' ' && c != '\t' {
			return false
		}
	}
	return true
}

// oddQuotes reports whether b leaves a quoted section open
func oddQuotes(b []byte, quote byte) bool {
	if quote == 0 {
		return false
	}
	open := false
	for _, c := range b {
		if c == quote {
			open = !open
		}
	}
	return open
}
