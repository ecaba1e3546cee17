package connector

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/record"
)

// Write stores items at a file location and returns how many were written.
// CSV and parquet need rows; other elements are stored under "value".
func Write(ctx context.Context, loc Location, items []any) (int, error) {
	if !loc.IsFile() {
		return 0, errors.InvalidInput("uri", "not a file location: "+loc.URI)
	}
	if loc.Format == FormatJSONL {
		return len(items), writeJSONL(ctx, loc, items)
	}
	rows := make([]record.Row, len(items))
	for i, item := range items {
		if r, ok := record.AsRow(item); ok {
			rows[i] = r
		} else {
			rows[i] = record.Row{"value": item}
		}
	}
	rec := RecordFromRows(memory.NewGoAllocator(), rows)
	defer rec.Release()
	if err := WriteRecord(ctx, loc, rec); err != nil {
		return 0, err
	}
	return len(items), nil
}

func writeJSONL(ctx context.Context, loc Location, items []any) error {
	f, err := os.Create(loc.Path)
	if err != nil {
		return errors.ConnectorUnavailable(loc.URI, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(item); err != nil {
			return ioError(loc, err)
		}
	}
	if err := w.Flush(); err != nil {
		return ioError(loc, err)
	}
	return f.Close()
}
