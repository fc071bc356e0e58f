package parser

// RowBlock holds the complete logical rows that end in one chunk
type RowBlock struct {
	Index int
	Rows  [][]byte
}

// ReconcileStats describes the work done by Reconcile
type ReconcileStats struct {
	// Stitched counts rows that crossed a chunk boundary
	Stitched int
	// Rescanned counts chunks that began inside a quoted section
	Rescanned int
}

// Reconcile stitches rows cut by chunk boundaries. frags must be in chunk
// order and come from Scan with inQuote false. A row that straddles chunks
// is copied into its own buffer and belongs to the chunk in which it ends.
// A non-blank carry left at the end of input becomes the last row.
func Reconcile(frags []Fragment, quote byte) ([]RowBlock, ReconcileStats) {
	var stats ReconcileStats
	blocks := make([]RowBlock, len(frags))
	var carry []byte

	for i := range frags {
		f := frags[i]
		if i > 0 && oddQuotes(carry, quote) {
			f = Scan(f.Data, false, true, quote)
			stats.Rescanned++
		}
		blocks[i].Index = i

		switch f.Kind {
		case FragmentSpanning:
			carry = append(carry, f.Leading...)
		case FragmentBounded:
			rows := make([][]byte, 0, len(f.Rows)+1)
			if i > 0 {
				row := make([]byte, 0, len(carry)+len(f.Leading))
				row = append(row, carry...)
				row = append(row, f.Leading...)
				if !isBlank(row) {
					rows = append(rows, row)
					if len(carry) > 0 {
						stats.Stitched++
					}
				}
			}
			blocks[i].Rows = append(rows, f.Rows...)
			carry = append(carry[:0], f.Trailing...)
		}
	}

	if len(blocks) > 0 && !isBlank(carry) {
		last := &blocks[len(blocks)-1]
		last.Rows = append(last.Rows, append([]byte(nil), carry...))
	}
	return blocks, stats
}

// CountRows returns the number of rows across blocks
func CountRows(blocks []RowBlock) int {
	n := 0
	for _, b := range blocks {
		n += len(b.Rows)
	}
	return n
}
