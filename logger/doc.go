// Package logger provides structured logging for seqkit using zerolog.
//
// It supports JSON and console output, log level configuration and
// component-scoped loggers. Operators log through logger.Get("seq"); sequence
// wrappers such as seq.Logged accept an explicit *Logger.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("report")
//	log.Info("join finished", logger.Fields(logger.FieldElements, 42))
package logger
