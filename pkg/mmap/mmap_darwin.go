//go:build darwin

package mmap

import (
	"os"
	"syscall"
	"unsafe"
)

const (
	adviceSequential = 2 // MADV_SEQUENTIAL
	adviceWillNeed   = 3 // MADV_WILLNEED
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

// advise calls madvise directly; the syscall package does not export it on darwin
func advise(b []byte, advice int) error {
	if len(b) == 0 {
		return nil
	}
	_, _, errno := syscall.Syscall(syscall.SYS_MADVISE, uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), uintptr(advice))
	if errno != 0 {
		return errno
	}
	return nil
}
