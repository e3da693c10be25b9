// Package errors provides error handling conventions for the mcpsync CLI.
//
// It re-exports the wrapping helpers of github.com/cockroachdb/errors so that
// callers only ever import one errors package, defines the sentinel errors
// that make up the failure taxonomy, and provides an ExitError type that maps
// failures to process exit codes.
//
// # Kinds
//
// Every failure the engine surfaces can be classified with [KindOf]:
//
//	switch errors.KindOf(err) {
//	case errors.KindNotFound:
//	    // nothing to sync yet
//	case errors.KindPermissionDenied:
//	    // explain which file could not be written
//	}
//
// I/O failures are marked with [ErrIO] via [MarkIO], which keeps the OS error
// text while letting [errors.Is] recognize the kind.
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, conflicts)
//   - ExitSystem (2): System-related error (I/O, permissions)
package errors
