// Package process runs external executables with context cancellation. A
// canceled command gets SIGTERM for its whole process group and SIGKILL after
// the grace period.
//
// Backends use it to query the runtimes their generated code targets.
package process
