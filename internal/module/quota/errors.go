package quota

import "errors"

// Module errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
)
