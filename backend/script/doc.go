// Package script generates query scripts from a graph. The artifact of every
// node is a *Program; compiling a sink yields the whole script up to it.
//
// Two dialects are built in and resolved as "script:dolphindb" and
// "script:sql". Operations a dialect cannot express become comments.
package script
