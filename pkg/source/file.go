package source

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/chunkframe/pkg/mmap"
)

// FileSource serves fixed-size chunks of a memory-mapped local file.
// Chunk data aliases the mapping and stays valid until Close.
type FileSource struct {
	path   string
	reader *mmap.Reader
	layout layout
}

// NewFileSource maps path and splits it into chunks of chunkSize bytes
func NewFileSource(path string, chunkSize int64) (*FileSource, error) {
	r, err := mmap.NewReader(path)
	if err != nil {
		return nil, err
	}
	l, err := newLayout(r.Size(), chunkSize)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return &FileSource{path: path, reader: r, layout: l}, nil
}

// NumChunks returns the number of chunks
func (f *FileSource) NumChunks() int { return f.layout.numChunks() }

// Size returns the file size in bytes
func (f *FileSource) Size() int64 { return f.layout.size }

// ReadChunk returns chunk i without copying
func (f *FileSource) ReadChunk(ctx context.Context, i int) (*Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	off, n, err := f.layout.bounds(i)
	if err != nil {
		return nil, err
	}
	data, err := f.reader.ReadRange(off, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return &Chunk{Index: i, Offset: off, Data: data}, nil
}

// Close unmaps the file
func (f *FileSource) Close() error {
	return f.reader.Close()
}
