// Package version reports the flowc build. Values are set with -ldflags and
// fall back to the module build info:
//
//	go build -ldflags "-X github.com/kbukum/flowc/version.Version=0.3.0" ./cmd/flowc
package version
