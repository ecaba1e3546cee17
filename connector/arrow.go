package connector

import (
	"context"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/record"
	"github.com/kbukum/flowc/util"
)

type columnKind int

const (
	kindNull columnKind = iota
	kindFloat
	kindBool
	kindString
)

func kindOf(v any) columnKind {
	switch v.(type) {
	case nil:
		return kindNull
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindFloat
	case bool:
		return kindBool
	default:
		return kindString
	}
}

func arrowType(k columnKind) arrow.DataType {
	switch k {
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindString:
		return arrow.BinaryTypes.String
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

// Schema infers a nullable Arrow schema for rows. Numeric columns become
// Float64, boolean columns Boolean and everything else, including columns
// mixing kinds, String. Columns that are null throughout are Float64.
func Schema(rows []record.Row) *arrow.Schema {
	keys := record.Keys(rows)
	fields := make([]arrow.Field, len(keys))
	for i, k := range keys {
		kind := kindNull
		for _, r := range rows {
			vk := kindOf(r[k])
			switch {
			case vk == kindNull:
			case kind == kindNull:
				kind = vk
			case kind != vk:
				kind = kindString
			}
		}
		fields[i] = arrow.Field{Name: k, Type: arrowType(kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// RecordFromRows builds one record batch from rows. The caller releases it.
func RecordFromRows(mem memory.Allocator, rows []record.Row) arrow.Record {
	schema := Schema(rows)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for i, f := range schema.Fields() {
		switch fb := b.Field(i).(type) {
		case *array.Float64Builder:
			for _, r := range rows {
				if v, ok := record.Float(r, f.Name); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *array.BooleanBuilder:
			for _, r := range rows {
				if v, ok := r[f.Name].(bool); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *array.StringBuilder:
			for _, r := range rows {
				if v := r[f.Name]; v != nil {
					fb.Append(util.ToString(v))
				} else {
					fb.AppendNull()
				}
			}
		}
	}
	return b.NewRecord()
}

// Value reads element i of arr as a row value. Integers widen to float64,
// NaN and nulls become nil, and types without a row form use their text.
func Value(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Float64:
		return record.Nullable(a.Value(i))
	case *array.Float32:
		return record.Nullable(float64(a.Value(i)))
	case *array.Int64:
		return float64(a.Value(i))
	case *array.Int32:
		return float64(a.Value(i))
	case *array.Uint64:
		return float64(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	default:
		return arr.ValueStr(i)
	}
}

// RowsFromRecord converts a record batch to rows.
func RowsFromRecord(rec arrow.Record) []record.Row {
	n := int(rec.NumRows())
	rows := make([]record.Row, n)
	for i := range rows {
		rows[i] = make(record.Row, rec.NumCols())
	}
	for j, col := range rec.Columns() {
		name := rec.ColumnName(j)
		for i := 0; i < n; i++ {
			rows[i][name] = Value(col, i)
		}
	}
	return rows
}

// RowsFromTable converts every chunk of tbl to rows.
func RowsFromTable(tbl arrow.Table) []record.Row {
	tr := array.NewTableReader(tbl, -1)
	defer tr.Release()
	var rows []record.Row
	for tr.Next() {
		rows = append(rows, RowsFromRecord(tr.Record())...)
	}
	return rows
}

// ReadTable loads a csv or parquet location as an Arrow table. CSV column
// types are inferred; chunk bounds the rows per batch, with zero or less
// reading the file as one batch. The caller releases the table.
func ReadTable(ctx context.Context, loc Location, mem memory.Allocator, chunk int) (arrow.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch loc.Format {
	case FormatParquet:
		tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
		if err != nil {
			return nil, ioError(loc, err)
		}
		return tbl, nil
	case FormatCSV:
		if chunk <= 0 {
			chunk = -1
		}
		r := arrowcsv.NewInferringReader(f,
			arrowcsv.WithAllocator(mem),
			arrowcsv.WithHeader(true),
			arrowcsv.WithChunk(chunk),
			arrowcsv.WithNullReader(true, ""),
		)
		defer r.Release()
		var recs []arrow.Record
		defer func() {
			for _, rec := range recs {
				rec.Release()
			}
		}()
		for r.Next() {
			rec := r.Record()
			rec.Retain()
			recs = append(recs, rec)
		}
		if err := r.Err(); err != nil {
			return nil, ioError(loc, err)
		}
		if len(recs) == 0 {
			return array.NewTableFromRecords(arrow.NewSchema(nil, nil), nil), nil
		}
		return array.NewTableFromRecords(recs[0].Schema(), recs), nil
	default:
		return nil, errors.InvalidInput("uri", "no columnar reader for "+loc.URI)
	}
}

// WriteRecord writes rec to a csv or parquet location, replacing the file.
func WriteRecord(ctx context.Context, loc Location, rec arrow.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(loc.Path)
	if err != nil {
		return errors.ConnectorUnavailable(loc.URI, err)
	}
	defer f.Close()

	switch loc.Format {
	case FormatParquet:
		tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
		defer tbl.Release()
		if err := pqarrow.WriteTable(tbl, f, max(rec.NumRows(), 1), parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
			return ioError(loc, err)
		}
		return nil
	case FormatCSV:
		w := arrowcsv.NewWriter(f, rec.Schema(), arrowcsv.WithHeader(true), arrowcsv.WithNullWriter(""))
		if err := w.Write(rec); err != nil {
			return ioError(loc, err)
		}
		if err := w.Flush(); err != nil {
			return ioError(loc, err)
		}
		return f.Close()
	default:
		return errors.InvalidInput("uri", "no columnar writer for "+loc.URI)
	}
}

func ioError(loc Location, err error) error {
	return errors.BackendExecution("connector", err).WithDetail("uri", loc.URI)
}
