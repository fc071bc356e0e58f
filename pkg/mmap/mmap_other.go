//go:build !linux && !darwin

package mmap

import (
	"io"
	"os"
)

const (
	adviceSequential = 0
	adviceWillNeed   = 0
)

// mapFile reads the file into memory where mmap is unavailable
func mapFile(f *os.File, size int64) ([]byte, bool, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, false, err
	}
	return data, false, nil
}

func unmapFile([]byte) error { return nil }

func advise([]byte, int) error { return nil }
