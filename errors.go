package pagecraft

import (
	"errors"
	"net/http"

	"github.com/eringen/pagecraft/builder"
)

// ErrConflict is returned when a save would break slug uniqueness.
var ErrConflict = errors.New("conflict")

// ErrNotFound is the builder's not-found sentinel, re-exported for callers
// of the store.
var ErrNotFound = builder.ErrNotFound

// statusFor maps a domain error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, builder.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, builder.ErrValidation), errors.Is(err, builder.ErrInvalidDrop):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
