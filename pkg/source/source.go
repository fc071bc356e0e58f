// Package source supplies the raw byte ranges ("chunks") a parse job reads.
//
// A Source knows how many chunks it has and can read any of them
// independently, in any order and from several goroutines at once. Chunk
// boundaries are arbitrary byte offsets: they may fall inside a row, a token
// or a multi-byte literal, and the parser is responsible for stitching rows
// back together.
//
// Implementations are provided for in-memory data, local files (memory
// mapped), S3 objects and GCS objects. Open picks one from a URI.
package source

import (
	"context"
	"fmt"
)

// Chunk is one independently readable byte range of the input
type Chunk struct {
	Index  int
	Offset int64
	Data   []byte
}

// Source is a chunked, random-access view of one input
type Source interface {
	// NumChunks returns the number of chunks; it never changes
	NumChunks() int
	// ReadChunk reads chunk i. The returned data must not be modified.
	ReadChunk(ctx context.Context, i int) (*Chunk, error)
	// Close releases the underlying resources
	Close() error
}

// layout splits size bytes into chunks of chunkSize bytes
type layout struct {
	size      int64
	chunkSize int64
}

func newLayout(size, chunkSize int64) (layout, error) {
	if chunkSize <= 0 {
		return layout{}, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if size < 0 {
		return layout{}, fmt.Errorf("size cannot be negative, got %d", size)
	}
	return layout{size: size, chunkSize: chunkSize}, nil
}

func (l layout) numChunks() int {
	return int((l.size + l.chunkSize - 1) / l.chunkSize)
}

// bounds returns the offset and length of chunk i
func (l layout) bounds(i int) (int64, int64, error) {
	if i < 0 || i >= l.numChunks() {
		return 0, 0, fmt.Errorf("chunk %d out of range [0, %d)", i, l.numChunks())
	}
	off := int64(i) * l.chunkSize
	n := l.chunkSize
	if off+n > l.size {
		n = l.size - off
	}
	return off, n, nil
}
