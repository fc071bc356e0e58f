//go:build linux

package mmap

import (
	"os"
	"syscall"
)

const (
	adviceSequential = syscall.MADV_SEQUENTIAL
	adviceWillNeed   = syscall.MADV_WILLNEED
)

// mapFile maps the whole file read-only
func mapFile(f *os.File, size int64) ([]byte, bool, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func unmapFile(b []byte) error {
	return syscall.Munmap(b)
}

func advise(b []byte, advice int) error {
	if len(b) == 0 {
		return nil
	}
	return syscall.Madvise(b, advice)
}
