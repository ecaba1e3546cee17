package connector

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/pipeline"
	"github.com/kbukum/flowc/record"
)

func TestParse(t *testing.T) {
	tests := []struct {
		uri    string
		scheme string
		path   string
		format Format
	}{
		{"csv://data/prices.csv", "csv", "data/prices.csv", FormatCSV},
		{"prices.CSV", "file", "prices.CSV", FormatCSV},
		{"jsonl://events", "jsonl", "events", FormatJSONL},
		{"out.ndjson", "file", "out.ndjson", FormatJSONL},
		{"parquet://bars.parquet", "parquet", "bars.parquet", FormatParquet},
		{"file://out.parquet", "file", "out.parquet", FormatParquet},
		{"file://out.txt", "file", "out.txt", FormatJSONL},
		{"memory://", "memory", "", ""},
		{"payload://", "payload", "", ""},
		{"kafka://topic", "kafka", "topic", ""},
		{"stdout", "", "stdout", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			loc := Parse(tt.uri)
			if loc.Scheme != tt.scheme || loc.Path != tt.path || loc.Format != tt.format {
				t.Fatalf("expected (%q, %q, %q), got (%q, %q, %q)",
					tt.scheme, tt.path, tt.format, loc.Scheme, loc.Path, loc.Format)
			}
		})
	}
}

func collect(t *testing.T, p *pipeline.Pipeline[any]) []any {
	t.Helper()
	out, err := pipeline.Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSource_CSVStreamsTypedRows(t *testing.T) {
	path := writeFile(t, "prices.csv", "close,name,volume\n1.5,a,10\n2.5,b,\n")
	got := collect(t, Source("csv://"+path, nil))
	want := []any{
		record.Row{"close": 1.5, "name": "a", "volume": 10.0},
		record.Row{"close": 2.5, "name": "b", "volume": nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_CSVIsReadAgainEachPass(t *testing.T) {
	path := writeFile(t, "p.csv", "x\n1.5\n")
	p := Source(path, nil)
	if len(collect(t, p)) != 1 || len(collect(t, p)) != 1 {
		t.Fatal("expected one row on every pass")
	}
}

func TestSource_JSONL(t *testing.T) {
	path := writeFile(t, "e.jsonl", "{\"a\":1}\n\n{\"a\":2}\n")
	got := collect(t, Source(path, nil))
	want := []any{map[string]any{"a": 1.0}, map[string]any{"a": 2.0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_MemoryPayloadAndStub(t *testing.T) {
	got := collect(t, Source("memory://", map[string]any{"data": []int{1, 2, 3}}))
	if diff := cmp.Diff([]any{1, 2, 3}, got); diff != "" {
		t.Fatalf("memory mismatch (-want +got):\n%s", diff)
	}
	got = collect(t, Source("payload://", map[string]any{"payload": "hello"}))
	if diff := cmp.Diff([]any{"hello"}, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	got = collect(t, Source("kafka://prices", nil))
	if len(got) != 15 {
		t.Fatalf("expected 15 stub rows, got %d", len(got))
	}
	if r := got[14].(record.Row); r["close"] != 15.0 {
		t.Fatalf("expected last stub close 15, got %v", r["close"])
	}
}

func TestSource_MissingFile(t *testing.T) {
	for _, uri := range []string{"csv://nope/missing.csv", "missing.jsonl", "parquet://missing.parquet"} {
		_, err := pipeline.Collect(context.Background(), Source(uri, nil))
		if !errors.Is(err, errors.ErrCodeConnectorUnavailable) {
			t.Fatalf("%s: expected CONNECTOR_UNAVAILABLE, got %v", uri, err)
		}
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	items := []any{
		record.Row{"close": 1.5, "name": "a"},
		record.Row{"close": 2.5, "name": "b"},
	}
	want := []record.Row{
		{"close": 1.5, "name": "a"},
		{"close": 2.5, "name": "b"},
	}
	ctx := context.Background()
	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.parquet"} {
		t.Run(name, func(t *testing.T) {
			loc := Parse(filepath.Join(dir, name))
			n, err := Write(ctx, loc, items)
			if err != nil {
				t.Fatalf("write: %v", err)
			}
			if n != 2 {
				t.Fatalf("expected 2 written, got %d", n)
			}
			got, err := ReadRows(ctx, loc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite_JSONLScalars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if _, err := Write(context.Background(), Parse(path), []any{1, "two"}); err != nil {
		t.Fatal(err)
	}
	got := collect(t, Source("jsonl://"+path, nil))
	if diff := cmp.Diff([]any{1.0, "two"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_RequiresFile(t *testing.T) {
	if _, err := Write(context.Background(), Parse("stdout"), nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestSchema_MixedKindsBecomeString(t *testing.T) {
	s := Schema([]record.Row{{"a": 1.0, "b": true, "c": nil}, {"a": "x", "b": false}})
	got := map[string]string{}
	for _, f := range s.Fields() {
		got[f.Name] = f.Type.String()
	}
	want := map[string]string{"a": "utf8", "b": "bool", "c": "float64"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestTransientOpenError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"missing file", errors.ConnectorUnavailable("x.csv", fs.ErrNotExist), false},
		{"permission", errors.ConnectorUnavailable("x.csv", fs.ErrPermission), false},
		{"descriptor limit", errors.ConnectorUnavailable("x.csv", stderrors.New("too many open files")), true},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transientOpenError(tt.err); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
