package connector

import (
	"path/filepath"
	"strings"
)

// Format is the on-disk encoding of a file location.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// Schemes handled without touching the filesystem.
const (
	SchemeMemory  = "memory"
	SchemePayload = "payload"
	SchemeFile    = "file"
)

// Location is a parsed URI.
type Location struct {
	URI    string
	Scheme string
	Path   string
	Format Format
}

// IsFile reports whether the location names a readable or writable file.
func (l Location) IsFile() bool { return l.Format != "" }

func (l Location) String() string { return l.URI }

// Parse splits uri into scheme and path and works out the file format.
// A bare path is a file when its extension is known.
func Parse(uri string) Location {
	loc := Location{URI: uri, Path: uri}
	if scheme, rest, ok := strings.Cut(uri, "://"); ok {
		loc.Scheme = strings.ToLower(scheme)
		loc.Path = rest
	}
	switch loc.Scheme {
	case string(FormatCSV), string(FormatJSONL), string(FormatParquet):
		loc.Format = Format(loc.Scheme)
	case SchemeFile:
		loc.Format = formatOf(loc.Path)
		if loc.Format == "" {
			loc.Format = FormatJSONL
		}
	case "":
		if loc.Format = formatOf(loc.Path); loc.Format != "" {
			loc.Scheme = SchemeFile
		}
	}
	return loc
}

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".parquet":
		return FormatParquet
	default:
		return ""
	}
}
