// Package mmap provides memory-mapped, read-only access to local files so
// that chunks of a large input can be handed to parse workers without copying.
package mmap

import (
	"fmt"
	"os"
	"sync"
)

// Reader maps a whole file read-only. Slices returned by ReadRange alias the
// mapping and are valid until Close.
type Reader struct {
	file     *os.File
	data     []byte
	fileSize int64
	pageSize int
	mapped   bool

	// Prefetch control
	prefetch bool

	// Stats
	bytesRead int64
	pagesRead int64

	mu sync.RWMutex
}

// NewReader maps filename into memory. Empty files are allowed and yield an
// empty reader.
func NewReader(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: path is supplied by the job configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r := &Reader{
		file:     file,
		fileSize: stat.Size(),
		pageSize: os.Getpagesize(),
		prefetch: true,
	}
	if r.fileSize == 0 {
		return r, nil
	}

	data, mapped, err := mapFile(file, r.fileSize)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	r.data = data
	r.mapped = mapped

	// access is mostly sequential; failure only costs read-ahead
	_ = advise(data, adviceSequential)
	return r, nil
}

// Size returns the file size in bytes
func (r *Reader) Size() int64 {
	return r.fileSize
}

// ReadRange returns up to length bytes starting at offset without copying
func (r *Reader) ReadRange(offset, length int64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil, fmt.Errorf("reader is closed")
	}
	if offset < 0 || offset > r.fileSize || length < 0 {
		return nil, fmt.Errorf("range [%d, +%d) out of bounds [0, %d)", offset, length, r.fileSize)
	}

	end := offset + length
	if end > r.fileSize {
		end = r.fileSize
	}
	if end == offset {
		return []byte{}, nil
	}

	if r.prefetch {
		r.prefetchRange(offset, end)
	}

	r.bytesRead += end - offset
	r.pagesRead += ((end - offset) + int64(r.pageSize) - 1) / int64(r.pageSize)

	return r.data[offset:end], nil
}

// prefetchRange advises the kernel to fault in the pages of a range
func (r *Reader) prefetchRange(start, end int64) {
	startPage := (start / int64(r.pageSize)) * int64(r.pageSize)
	endPage := ((end + int64(r.pageSize) - 1) / int64(r.pageSize)) * int64(r.pageSize)

	if endPage > r.fileSize {
		endPage = r.fileSize
	}
	if endPage <= startPage {
		return
	}

	_ = advise(r.data[startPage:endPage], adviceWillNeed)
}

// Close unmaps the file and closes it
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error

	if r.data != nil && r.mapped {
		err = unmapFile(r.data)
	}
	r.data = nil

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}

	return err
}

// Stats returns reading statistics
func (r *Reader) Stats() (bytesRead, pagesRead int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytesRead, r.pagesRead
}
