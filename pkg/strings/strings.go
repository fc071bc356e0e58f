// Package strings provides zero-copy string conversions and a pooled
// Sprintf used on the hot paths of the parser.
package strings

import (
	"fmt"
	"sync"
	"unsafe"
)

// BytesToString converts a byte slice to a string without allocation.
// WARNING: The returned string shares memory with the byte slice.
// Do not modify the byte slice after calling this function.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StringToBytes converts a string to a byte slice without allocation.
// WARNING: The returned slice shares memory with the string.
// Do not modify the returned slice.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// Clone returns a copy of b as an independently owned string. Tokens that
// outlive their chunk (categorical domain entries) must be cloned.
func Clone(b []byte) string {
	return string(b)
}

// Builder is the reusable byte buffer behind Sprintf
type Builder struct {
	buf []byte
}

// NewBuilder creates a new string builder
func NewBuilder(capacity int) *Builder {
	return &Builder{buf: make([]byte, 0, capacity)}
}

// Write implements io.Writer
func (b *Builder) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Reset empties the builder, keeping its capacity
func (b *Builder) Reset() { b.buf = b.buf[:0] }

// BuilderSize represents different builder sizes
type BuilderSize int

const (
	Small  BuilderSize = iota // < 1KB
	Medium                    // 1KB - 16KB
	Large                     // 16KB+
)

var (
	smallBuilderPool = &sync.Pool{
		New: func() interface{} { return NewBuilder(256) },
	}
	mediumBuilderPool = &sync.Pool{
		New: func() interface{} { return NewBuilder(4 * 1024) },
	}
	largeBuilderPool = &sync.Pool{
		New: func() interface{} { return NewBuilder(64 * 1024) },
	}
)

func poolFor(size BuilderSize) *sync.Pool {
	switch size {
	case Small:
		return smallBuilderPool
	case Medium:
		return mediumBuilderPool
	case Large:
		return largeBuilderPool
	default:
		return smallBuilderPool
	}
}

// GetBuilder retrieves a pooled builder of the specified size
func GetBuilder(size BuilderSize) *Builder {
	builder := poolFor(size).Get().(*Builder)
	builder.Reset()
	return builder
}

// PutBuilder returns a builder to the appropriate pool
func PutBuilder(builder *Builder, size BuilderSize) {
	if builder == nil {
		return
	}
	builder.Reset()
	poolFor(size).Put(builder)
}

// Sprintf provides a pooled alternative to fmt.Sprintf
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}

	estimatedSize := len(format) + len(args)*16

	size := Small
	if estimatedSize > 16*1024 {
		size = Large
	} else if estimatedSize > 1024 {
		size = Medium
	}

	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	fmt.Fprintf(builder, format, args...)

	return string(builder.buf)
}
