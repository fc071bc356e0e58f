package columnar

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// canonicalNaN is hashed for every missing cell regardless of payload bits
var canonicalNaN = math.Float64bits(math.NaN())

// Checksum hashes the schema and every cell of the frame. Two frames with
// equal checksums have the same shape, types, domains and values.
func (f *Frame) Checksum() uint64 {
	h := xxh3.New()
	var buf [8]byte

	writeInt := func(n int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		_, _ = h.Write(buf[:])
	}

	writeInt(int(f.schema.Format))
	writeInt(f.rows)
	writeInt(len(f.columns))
	for _, c := range f.columns {
		writeInt(len(c.Name))
		_, _ = h.WriteString(c.Name)
		writeInt(int(c.Type))
		writeInt(c.Domain.Len())
		for _, level := range c.Domain.Levels() {
			writeInt(len(level))
			_, _ = h.WriteString(level)
		}
		for _, v := range c.Values {
			bits := math.Float64bits(v)
			if math.IsNaN(v) {
				bits = canonicalNaN
			}
			binary.LittleEndian.PutUint64(buf[:], bits)
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}
