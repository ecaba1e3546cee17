package process

import (
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 if the process was killed or never started.
	ExitCode int
	Duration time.Duration
}

// FirstLine returns the first non-empty line of stdout, falling back to
// stderr. Version banners land on either stream depending on the tool.
func (r *Result) FirstLine() string {
	for _, out := range [][]byte{r.Stdout, r.Stderr} {
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return line
			}
		}
	}
	return ""
}
