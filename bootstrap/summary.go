package bootstrap

import (
	"fmt"
	"io"
	"time"
)

// CompileInfo records one graph compilation.
type CompileInfo struct {
	Backend  string
	Nodes    int
	Targets  int
	Duration time.Duration
}

// SinkInfo records one executed target.
type SinkInfo struct {
	Target string
	Rows   int
	Err    error
}

// Summary tracks what an invocation compiled and ran.
type Summary struct {
	serviceName string
	version     string
	compiles    []CompileInfo
	sinks       []SinkInfo
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// TrackCompile records a compilation.
func (s *Summary) TrackCompile(backend string, nodes, targets int, d time.Duration) {
	s.compiles = append(s.compiles, CompileInfo{Backend: backend, Nodes: nodes, Targets: targets, Duration: d})
}

// TrackSink records the outcome of one executed target.
func (s *Summary) TrackSink(target string, rows int, err error) {
	s.sinks = append(s.sinks, SinkInfo{Target: target, Rows: rows, Err: err})
}

// Compiles returns the recorded compilations.
func (s *Summary) Compiles() []CompileInfo { return s.compiles }

// Sinks returns the recorded targets.
func (s *Summary) Sinks() []SinkInfo { return s.sinks }

// Display writes the summary as a tree.
func (s *Summary) Display(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", s.serviceName, s.version)

	if len(s.compiles) > 0 {
		fmt.Fprintf(w, "compiled\n")
		for i, c := range s.compiles {
			fmt.Fprintf(w, "   %s %s: %d nodes, %d targets in %s\n",
				prefix(i, len(s.compiles)), c.Backend, c.Nodes, c.Targets, c.Duration.Round(time.Microsecond))
		}
	}

	if len(s.sinks) > 0 {
		fmt.Fprintf(w, "sinks\n")
		failed := 0
		for i, k := range s.sinks {
			status := fmt.Sprintf("%d rows", k.Rows)
			if k.Err != nil {
				status = "failed: " + k.Err.Error()
				failed++
			}
			fmt.Fprintf(w, "   %s %s %s\n", prefix(i, len(s.sinks)), k.Target, status)
		}
		if failed == 0 {
			fmt.Fprintf(w, "all sinks completed (%d/%d)\n", len(s.sinks), len(s.sinks))
		} else {
			fmt.Fprintf(w, "some sinks failed (%d/%d ok)\n", len(s.sinks)-failed, len(s.sinks))
		}
	}
}

func prefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
