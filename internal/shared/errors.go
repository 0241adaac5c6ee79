package shared

import "errors"

var (
	// ErrNotFound indicates the targeted entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a required field is empty or missing.
	ErrValidation = errors.New("validation failed")
)
