package handler

import "errors"

var (
	// ErrInvalidType means a field had the wrong JSON type (a number where a
	// string was expected, for example).
	ErrInvalidType = errors.New("invalid field type")
	// ErrMissingField means a required field was absent or blank.
	ErrMissingField = errors.New("missing required field")
)

// flash messages for the ?err= query flag set by form redirects.
var errMessages = map[string]string{
	"invalid":   "Please check the form: make, model and a positive price are required.",
	"not_found": "That car is no longer available.",
	"failed":    "Something went wrong, please try again.",
}
