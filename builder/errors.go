package builder

import "errors"

// Sentinel errors returned by document, coordinator and session operations.
// Callers match them with errors.Is; messages carry the detail.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrInvalidDrop = errors.New("invalid drop target")
)
