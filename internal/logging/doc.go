// Package logging provides structured logging for the mcpsync CLI using slog.
//
// Text output goes through [Handler], which colors levels when the writer is
// a terminal and masks secret-looking attribute values. JSON output uses the
// standard library handler. [MultiHandler] fans records out to several
// handlers, which is how --log-file is implemented.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//	})
//	ctx = logging.NewContext(ctx, logger)
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework.
package logging
