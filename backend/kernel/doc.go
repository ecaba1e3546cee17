// Package kernel generates GPU kernel source from a graph. Map nodes become
// kernels named after their function; sources and sinks become host-side
// transfer notes and every other op is left as a comment. The artifact is a
// script.Program, resolved as "kernel:triton" or "kernel:cuda".
package kernel
