package sheets

import "errors"

var (
	// ErrAccessDenied means the service credentials were rejected.
	// Fatal for the process.
	ErrAccessDenied = errors.New("sheet access denied")
	// ErrNotFound means the named sheet does not exist.
	ErrNotFound = errors.New("sheet not found")
	// ErrSchemaMismatch means an expected header layout was missing and
	// could not be recreated.
	ErrSchemaMismatch = errors.New("sheet schema mismatch")
)
