// Package logger provides structured logging for pipegraph using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("layout")
//	log.Info("layout completed", logger.Fields("nodes", 12, "ranks", 4))
package logger
