package connector

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/pipeline"
	"github.com/kbukum/flowc/record"
	"github.com/kbukum/flowc/util"
)

const maxLineSize = 16 << 20

// Source returns the lazy element stream for a source URI. Files are opened
// on the first pull of each pass. cfg supplies "data" for memory:// and
// "payload" for payload://.
func Source(uri string, cfg map[string]any) *pipeline.Pipeline[any] {
	loc := Parse(uri)
	switch {
	case loc.Format == FormatCSV:
		return pipeline.FromFunc(func(context.Context) pipeline.Iterator[any] {
			return &csvIter{loc: loc}
		})
	case loc.Format == FormatJSONL:
		return pipeline.FromFunc(func(context.Context) pipeline.Iterator[any] {
			return &jsonlIter{loc: loc}
		})
	case loc.Format == FormatParquet:
		return pipeline.Deferred(func(ctx context.Context) ([]any, error) {
			rows, err := ReadRows(ctx, loc)
			if err != nil {
				return nil, err
			}
			return rowItems(rows), nil
		})
	case loc.Scheme == SchemeMemory:
		return pipeline.FromSlice(Items(cfg["data"]))
	case loc.Scheme == SchemePayload:
		return pipeline.Once(cfg["payload"])
	default:
		logger.Get("connector").Debug("no connector for source, using stub data", logger.Fields(logger.FieldURI, uri))
		return pipeline.Deferred(func(context.Context) ([]any, error) {
			return rowItems(record.Stub()), nil
		})
	}
}

// ReadRows loads a whole csv or parquet file as rows through Arrow.
func ReadRows(ctx context.Context, loc Location) ([]record.Row, error) {
	tbl, err := ReadTable(ctx, loc, memory.NewGoAllocator(), 0)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return RowsFromTable(tbl), nil
}

// Items converts a memory source's data to elements. Slices of any element
// type are spread; any other non-nil value is a single element.
func Items(data any) []any {
	switch d := data.(type) {
	case nil:
		return nil
	case []any:
		return d
	case []record.Row:
		return rowItems(d)
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []any{data}
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

func rowItems(rows []record.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// cell converts a CSV field: empty is null, numbers are float64.
func cell(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return util.ParseScalar(s)
}

type csvIter struct {
	loc    Location
	file   *os.File
	reader *csv.Reader
	header []string
	done   bool
}

func (it *csvIter) open(ctx context.Context) error {
	f, err := openFile(ctx, it.loc)
	if err != nil {
		return err
	}
	it.file = f
	it.reader = csv.NewReader(bufio.NewReader(f))
	it.reader.FieldsPerRecord = -1
	it.reader.ReuseRecord = true
	header, err := it.reader.Read()
	if err == io.EOF {
		it.done = true
		return nil
	}
	if err != nil {
		return ioError(it.loc, err)
	}
	it.header = append([]string(nil), header...)
	return nil
}

func (it *csvIter) Next(ctx context.Context) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if it.reader == nil && !it.done {
		if err := it.open(ctx); err != nil {
			it.done = true
			return nil, false, err
		}
	}
	if it.done {
		return nil, false, nil
	}
	fields, err := it.reader.Read()
	if err == io.EOF {
		it.done = true
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ioError(it.loc, err)
	}
	row := make(record.Row, len(it.header))
	for i, name := range it.header {
		if i < len(fields) {
			row[name] = cell(fields[i])
		} else {
			row[name] = nil
		}
	}
	return row, true, nil
}

func (it *csvIter) Close() error {
	if it.file == nil {
		return nil
	}
	return it.file.Close()
}

type jsonlIter struct {
	loc     Location
	file    *os.File
	scanner *bufio.Scanner
	done    bool
}

func (it *jsonlIter) Next(ctx context.Context) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if it.done {
		return nil, false, nil
	}
	if it.scanner == nil {
		f, err := openFile(ctx, it.loc)
		if err != nil {
			it.done = true
			return nil, false, err
		}
		it.file = f
		it.scanner = bufio.NewScanner(f)
		it.scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	}
	for it.scanner.Scan() {
		line := strings.TrimSpace(it.scanner.Text())
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return nil, false, ioError(it.loc, err)
		}
		return v, true, nil
	}
	it.done = true
	if err := it.scanner.Err(); err != nil {
		return nil, false, ioError(it.loc, err)
	}
	return nil, false, nil
}

func (it *jsonlIter) Close() error {
	if it.file == nil {
		return nil
	}
	return it.file.Close()
}
