package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

// Info is the build description printed by "flowc version".
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	GitBranch string    `json:"git_branch,omitempty"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date,omitzero"`
	Release   bool      `json:"release"`
	Dirty     bool      `json:"dirty"`
}

// Get collects the build variables and the embedded VCS settings. Explicit
// ldflags values win over build info.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		Release:   Version != "dev" && !strings.Contains(Version, "dirty"),
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildDate = t
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				info.BuildDate, _ = time.Parse(time.RFC3339, s.Value)
			}
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// Short is version-commit, with -dirty for modified trees.
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	s := i.Version + "-" + i.GitCommit
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// String is Short plus a feature branch and the build date.
func (i Info) String() string {
	parts := []string{i.Short()}
	if i.GitBranch != "" && i.GitBranch != "main" && i.GitBranch != "master" {
		parts = append(parts, i.GitBranch)
	}
	if !i.BuildDate.IsZero() {
		parts = append(parts, fmt.Sprintf("(built %s)", i.BuildDate.UTC().Format(time.RFC3339)))
	}
	return strings.Join(parts, " ")
}

// Fields returns the info as log fields.
func (i Info) Fields() map[string]any {
	return map[string]any{
		"version":    i.Version,
		"git_commit": i.GitCommit,
		"go_version": i.GoVersion,
	}
}
