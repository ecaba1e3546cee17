// Package connector resolves source and sink URIs to readers and writers.
//
// Recognized forms:
//
//	csv://path      *.csv
//	jsonl://path    *.jsonl
//	parquet://path  *.parquet
//	file://path     format from the extension, jsonl otherwise
//	memory://       rows from the node's "data" config
//	payload://      the node's "payload" config as one element
//
// Any other source URI yields the deterministic stub dataset.
package connector
