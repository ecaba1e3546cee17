package vector

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/kbukum/flowc/connector"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/record"
)

// Frame is a set of named Arrow columns of equal length. Columns are
// Float64, Int64, String or Boolean.
type Frame struct {
	names []string
	cols  []arrow.Array
	rows  int
}

// NewFrame checks that every column has the same length.
func NewFrame(names []string, cols []arrow.Array) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, errors.InvalidInput("columns", "names and columns differ in count")
	}
	n := 0
	for i, c := range cols {
		if i == 0 {
			n = c.Len()
		} else if c.Len() != n {
			return nil, errors.InvalidInput("columns",
				fmt.Sprintf("column %s has %d rows, want %d", names[i], c.Len(), n))
		}
	}
	return &Frame{
		names: append([]string(nil), names...),
		cols:  append([]arrow.Array(nil), cols...),
		rows:  n,
	}, nil
}

// FrameFromRows builds a frame with a schema inferred from rows.
func FrameFromRows(mem memory.Allocator, rows []record.Row) *Frame {
	rec := connector.RecordFromRows(mem, rows)
	defer rec.Release()
	f := &Frame{rows: int(rec.NumRows())}
	for i, col := range rec.Columns() {
		col.Retain()
		f.names = append(f.names, rec.ColumnName(i))
		f.cols = append(f.cols, col)
	}
	return f
}

// FrameFromTable flattens the chunks of every column of tbl.
func FrameFromTable(mem memory.Allocator, tbl arrow.Table) (*Frame, error) {
	f := &Frame{rows: int(tbl.NumRows())}
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		chunks := col.Data().Chunks()
		var arr arrow.Array
		switch len(chunks) {
		case 0:
			arr = array.MakeArrayOfNull(mem, col.DataType(), 0)
		case 1:
			arr = chunks[0]
			arr.Retain()
		default:
			var err error
			if arr, err = array.Concatenate(chunks, mem); err != nil {
				return nil, errors.Internal(err)
			}
		}
		f.names = append(f.names, col.Name())
		f.cols = append(f.cols, normalize(mem, arr))
	}
	return f, nil
}

// normalize converts columns outside the four frame types: other numbers to
// Float64 and anything else to its text.
func normalize(mem memory.Allocator, arr arrow.Array) arrow.Array {
	switch arr.DataType().ID() {
	case arrow.FLOAT64, arrow.INT64, arrow.STRING, arrow.BOOL:
		return arr
	case arrow.FLOAT32, arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return toFloat(mem, arr)
	default:
		return toText(mem, arr)
	}
}

func toFloat(mem memory.Allocator, arr arrow.Array) arrow.Array {
	xs := make([]float64, arr.Len())
	for i := range xs {
		if v, ok := connector.Value(arr, i).(float64); ok {
			xs[i] = v
		} else {
			xs[i] = math.NaN()
		}
	}
	return floatArray(mem, xs)
}

func toText(mem memory.Allocator, arr arrow.Array) arrow.Array {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.AppendNull()
		} else {
			b.Append(arr.ValueStr(i))
		}
	}
	return b.NewArray()
}

// floatArray builds a Float64 column with NaN stored as null.
func floatArray(mem memory.Allocator, xs []float64) arrow.Array {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	valid := make([]bool, len(xs))
	for i, x := range xs {
		valid[i] = !math.IsNaN(x)
	}
	b.AppendValues(xs, valid)
	return b.NewArray()
}

// Len is the number of rows.
func (f *Frame) Len() int { return f.rows }

// Names returns the column names in order.
func (f *Frame) Names() []string { return append([]string(nil), f.names...) }

// Column returns the named column.
func (f *Frame) Column(name string) (arrow.Array, bool) {
	for i, n := range f.names {
		if n == name {
			return f.cols[i], true
		}
	}
	return nil, false
}

// Float64 returns the named column as floats with its validity. Missing or
// non-numeric columns are entirely invalid.
func (f *Frame) Float64(name string) ([]float64, []bool) {
	values := make([]float64, f.rows)
	valid := make([]bool, f.rows)
	col, ok := f.Column(name)
	if !ok {
		return values, valid
	}
	for i := range values {
		if v, ok := connector.Value(col, i).(float64); ok {
			values[i], valid[i] = v, true
		}
	}
	return values, valid
}

// series is Float64 with NaN for invalid entries.
func (f *Frame) series(name string) []float64 {
	values, valid := f.Float64(name)
	for i, ok := range valid {
		if !ok {
			values[i] = math.NaN()
		}
	}
	return values
}

// Rows converts the frame to rows.
func (f *Frame) Rows() []record.Row {
	rows := make([]record.Row, f.rows)
	for i := range rows {
		row := make(record.Row, len(f.names))
		for j, name := range f.names {
			row[name] = connector.Value(f.cols[j], i)
		}
		rows[i] = row
	}
	return rows
}

// Record returns the frame as one record batch. The caller releases it.
func (f *Frame) Record() arrow.Record {
	fields := make([]arrow.Field, len(f.names))
	for i, name := range f.names {
		fields[i] = arrow.Field{Name: name, Type: f.cols[i].DataType(), Nullable: true}
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), f.cols, int64(f.rows))
}

// WithColumn returns a frame with arr added, or replacing a column of the
// same name.
func (f *Frame) WithColumn(name string, arr arrow.Array) *Frame {
	out := &Frame{names: f.Names(), cols: append([]arrow.Array(nil), f.cols...), rows: f.rows}
	for i, n := range out.names {
		if n == name {
			out.cols[i] = arr
			return out
		}
	}
	out.names = append(out.names, name)
	out.cols = append(out.cols, arr)
	if len(out.cols) == 1 {
		out.rows = arr.Len()
	}
	return out
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n >= f.rows {
		return f
	}
	out := &Frame{names: f.Names(), rows: n}
	for _, c := range f.cols {
		out.cols = append(out.cols, array.NewSlice(c, 0, int64(n)))
	}
	return out
}

// Take returns the rows at idx, in that order.
func (f *Frame) Take(mem memory.Allocator, idx []int) *Frame {
	out := &Frame{names: f.Names(), rows: len(idx)}
	for _, c := range f.cols {
		out.cols = append(out.cols, take(mem, c, idx))
	}
	return out
}

func take(mem memory.Allocator, arr arrow.Array, idx []int) arrow.Array {
	b := array.NewBuilder(mem, arr.DataType())
	defer b.Release()
	for _, i := range idx {
		if arr.IsNull(i) {
			b.AppendNull()
			continue
		}
		switch a := arr.(type) {
		case *array.Float64:
			b.(*array.Float64Builder).Append(a.Value(i))
		case *array.Int64:
			b.(*array.Int64Builder).Append(a.Value(i))
		case *array.String:
			b.(*array.StringBuilder).Append(a.Value(i))
		case *array.Boolean:
			b.(*array.BooleanBuilder).Append(a.Value(i))
		default:
			b.AppendNull()
		}
	}
	return b.NewArray()
}

// Concat stacks frames vertically over the union of their columns. Cells
// of columns a frame lacks are null; Int64 meeting Float64 widens to
// Float64 and other type clashes fall back to String.
func Concat(mem memory.Allocator, frames ...*Frame) (*Frame, error) {
	var names []string
	types := map[string]arrow.DataType{}
	total := 0
	for _, f := range frames {
		total += f.rows
		for i, name := range f.names {
			dt := f.cols[i].DataType()
			prev, seen := types[name]
			if !seen {
				names = append(names, name)
				types[name] = dt
				continue
			}
			types[name] = unify(prev, dt)
		}
	}

	out := &Frame{names: names, rows: total}
	for _, name := range names {
		parts := make([]arrow.Array, 0, len(frames))
		for _, f := range frames {
			col, ok := f.Column(name)
			if !ok {
				parts = append(parts, array.MakeArrayOfNull(mem, types[name], f.rows))
				continue
			}
			parts = append(parts, cast(mem, col, types[name]))
		}
		col, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, errors.Internal(err)
		}
		out.cols = append(out.cols, col)
	}
	return out, nil
}

func unify(a, b arrow.DataType) arrow.DataType {
	if arrow.TypeEqual(a, b) {
		return a
	}
	numeric := func(t arrow.DataType) bool { return t.ID() == arrow.FLOAT64 || t.ID() == arrow.INT64 }
	if numeric(a) && numeric(b) {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

func cast(mem memory.Allocator, arr arrow.Array, to arrow.DataType) arrow.Array {
	switch {
	case arrow.TypeEqual(arr.DataType(), to):
		return arr
	case to.ID() == arrow.FLOAT64:
		return toFloat(mem, arr)
	default:
		return toText(mem, arr)
	}
}

// HStack places right's columns after left's, truncated to the shorter
// frame. Right names already present on the left get the suffix "_right".
func HStack(left, right *Frame) *Frame {
	n := min(left.rows, right.rows)
	l, r := left.Head(n), right.Head(n)
	out := &Frame{names: l.Names(), cols: append([]arrow.Array(nil), l.cols...), rows: n}
	for i, name := range r.names {
		if _, clash := l.Column(name); clash {
			name += "_right"
		}
		out.names = append(out.names, name)
		out.cols = append(out.cols, r.cols[i])
	}
	return out
}
