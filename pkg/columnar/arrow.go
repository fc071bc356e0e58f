package columnar

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/chunkframe/pkg/schema"
)

// ArrowSchema maps the frame schema to Arrow. Numeric columns become
// nullable float64, categorical columns int32-indexed string dictionaries
// whose dictionary is the column domain.
func (f *Frame) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(f.columns))
	for j, c := range f.columns {
		fields[j] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t schema.ColumnType) arrow.DataType {
	switch t {
	case schema.Categorical:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	case schema.Numeric:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

// ToArrow exports the frame as a single Arrow record. NaN cells become
// nulls. A nil allocator uses the Go allocator. The caller must Release the
// record.
func (f *Frame) ToArrow(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	sc := f.ArrowSchema()

	cols := make([]arrow.Array, len(f.columns))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	for j, c := range f.columns {
		switch c.Type {
		case schema.Categorical:
			cols[j] = dictionaryArray(mem, sc.Field(j).Type.(*arrow.DictionaryType), c)
		case schema.Numeric:
			cols[j] = floatArray(mem, c)
		}
	}
	return array.NewRecord(sc, cols, int64(f.rows))
}

func floatArray(mem memory.Allocator, c *Column) arrow.Array {
	b := array.NewFloat64Builder(mem)
	defer b.Release()

	valid := make([]bool, len(c.Values))
	for i, v := range c.Values {
		valid[i] = !math.IsNaN(v)
	}
	b.AppendValues(c.Values, valid)
	return b.NewArray()
}

func dictionaryArray(mem memory.Allocator, dt *arrow.DictionaryType, c *Column) arrow.Array {
	db := array.NewStringBuilder(mem)
	defer db.Release()
	db.AppendValues(c.Domain.Levels(), nil)
	dict := db.NewArray()
	defer dict.Release()

	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	ib.Reserve(len(c.Values))
	for _, v := range c.Values {
		if math.IsNaN(v) {
			ib.AppendNull()
			continue
		}
		ib.Append(int32(v))
	}
	indices := ib.NewArray()
	defer indices.Release()

	return array.NewDictionaryArray(dt, indices, dict)
}
