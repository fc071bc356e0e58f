package source

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/ajitpratap0/chunkframe/pkg/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WithEncoding converts every chunk of src to UTF-8.
//
// UTF-8 input only loses a leading byte order mark, even when the mark
// spans several small chunks.
// Single-byte encodings are decoded chunk by chunk; every input byte maps to
// one character, so a chunk boundary never splits one.
func WithEncoding(src Source, name string) (Source, error) {
	switch name {
	case "", config.EncodingUTF8:
		return &bomStripper{Source: src}, nil
	case config.EncodingWindows1252:
		return &decodingSource{Source: src, enc: charmap.Windows1252}, nil
	case config.EncodingISO88591:
		return &decodingSource{Source: src, enc: charmap.ISO8859_1}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

type bomStripper struct {
	Source

	once sync.Once
	bom  bool
	err  error
}

func (b *bomStripper) ReadChunk(ctx context.Context, i int) (*Chunk, error) {
	c, err := b.Source.ReadChunk(ctx, i)
	if err != nil || c.Offset >= int64(len(utf8BOM)) {
		return c, err
	}
	b.once.Do(func() { b.bom, b.err = b.detect(ctx) })
	if b.err != nil {
		return nil, b.err
	}
	if !b.bom {
		return c, nil
	}
	skip := int64(len(utf8BOM)) - c.Offset
	if skip > int64(len(c.Data)) {
		skip = int64(len(c.Data))
	}
	return &Chunk{Index: c.Index, Offset: c.Offset, Data: c.Data[skip:]}, nil
}

// detect reports whether the stream starts with a BOM, reading as many
// leading chunks as the three mark bytes span.
func (b *bomStripper) detect(ctx context.Context) (bool, error) {
	var head []byte
	for i := 0; i < b.NumChunks() && len(head) < len(utf8BOM); i++ {
		c, err := b.Source.ReadChunk(ctx, i)
		if err != nil {
			return false, err
		}
		head = append(head, c.Data...)
	}
	return bytes.HasPrefix(head, utf8BOM), nil
}

type decodingSource struct {
	Source
	enc encoding.Encoding
}

func (d *decodingSource) ReadChunk(ctx context.Context, i int) (*Chunk, error) {
	c, err := d.Source.ReadChunk(ctx, i)
	if err != nil {
		return nil, err
	}
	data, err := d.enc.NewDecoder().Bytes(c.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chunk %d: %w", i, err)
	}
	return &Chunk{Index: c.Index, Offset: c.Offset, Data: data}, nil
}
