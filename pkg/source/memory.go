package source

import (
	"context"
	"fmt"

	stringpool "github.com/ajitpratap0/chunkframe/pkg/strings"
)

// MemorySource serves chunks from byte slices already in memory
type MemorySource struct {
	parts   [][]byte
	offsets []int64
}

// NewMemorySource uses each part as one chunk, in order
func NewMemorySource(parts ...[]byte) *MemorySource {
	offsets := make([]int64, len(parts))
	var off int64
	for i, p := range parts {
		offsets[i] = off
		off += int64(len(p))
	}
	return &MemorySource{parts: parts, offsets: offsets}
}

// FromStrings uses each string as one chunk without copying
func FromStrings(parts ...string) *MemorySource {
	bs := make([][]byte, len(parts))
	for i, p := range parts {
		bs[i] = stringpool.StringToBytes(p)
	}
	return NewMemorySource(bs...)
}

// SplitBytes cuts data into chunks of chunkSize bytes
func SplitBytes(data []byte, chunkSize int) *MemorySource {
	if chunkSize <= 0 {
		chunkSize = len(data)
	}
	var parts [][]byte
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		parts = append(parts, data[off:end])
	}
	return NewMemorySource(parts...)
}

// NumChunks returns the number of parts
func (m *MemorySource) NumChunks() int { return len(m.parts) }

// ReadChunk returns part i
func (m *MemorySource) ReadChunk(ctx context.Context, i int) (*Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(m.parts) {
		return nil, fmt.Errorf("chunk %d out of range [0, %d)", i, len(m.parts))
	}
	return &Chunk{Index: i, Offset: m.offsets[i], Data: m.parts[i]}, nil
}

// Close is a no-op
func (m *MemorySource) Close() error { return nil }
