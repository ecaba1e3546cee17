// Package util provides small generic helpers and loose value coercion used
// when reading node parameters and untyped rows.
package util
