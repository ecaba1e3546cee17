// Package logger provides structured logging for flowc using zerolog.
//
// Logs go to stderr by default so that compiled plans and run results printed
// on stdout stay machine-readable.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("compiler")
//	log.WithNode(node.ID(), "Map").Debug("compiled", logger.Fields("backend", "native"))
package logger
