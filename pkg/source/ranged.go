package source

import (
	"context"
	"fmt"
)

// RangeReader reads byte ranges of a remote object
type RangeReader interface {
	// Size returns the object length in bytes
	Size(ctx context.Context) (int64, error)
	// ReadRange returns exactly n bytes starting at off
	ReadRange(ctx context.Context, off, n int64) ([]byte, error)
	// Close releases the client
	Close() error
}

// RangeSource splits a RangeReader into fixed-size chunks. Every chunk is
// fetched with its own ranged request.
type RangeSource struct {
	name   string
	reader RangeReader
	layout layout
}

// NewRangeSource stats the object once and lays out its chunks
func NewRangeSource(ctx context.Context, name string, r RangeReader, chunkSize int64) (*RangeSource, error) {
	size, err := r.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	l, err := newLayout(size, chunkSize)
	if err != nil {
		return nil, err
	}
	return &RangeSource{name: name, reader: r, layout: l}, nil
}

// NumChunks returns the number of chunks
func (s *RangeSource) NumChunks() int { return s.layout.numChunks() }

// Size returns the object size in bytes
func (s *RangeSource) Size() int64 { return s.layout.size }

// ReadChunk fetches chunk i
func (s *RangeSource) ReadChunk(ctx context.Context, i int) (*Chunk, error) {
	off, n, err := s.layout.bounds(i)
	if err != nil {
		return nil, err
	}
	data, err := s.reader.ReadRange(ctx, off, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s [%d, %d): %w", s.name, off, off+n, err)
	}
	if int64(len(data)) != n {
		return nil, fmt.Errorf("short read from %s at %d: got %d bytes, want %d", s.name, off, len(data), n)
	}
	return &Chunk{Index: i, Offset: off, Data: data}, nil
}

// Close closes the reader
func (s *RangeSource) Close() error {
	return s.reader.Close()
}
