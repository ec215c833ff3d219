// Package logger provides the structured logging interface used across
// bottagger, backed by zerolog.
//
// Console output goes to stderr with colored levels; a log file can be added
// with LoggingConfig.File. Components receive a Logger explicitly and derive
// scoped loggers with WithField:
//
//	log := logger.GetLogger().WithField("component", "scheduler")
//	log.InfoWithFields("Annotated author", map[string]interface{}{
//	    "username": "example",
//	    "label":    "High",
//	})
//
// Tests use NewTestLogger to capture and assert on messages, or NewNopLogger
// to silence output.
package logger
