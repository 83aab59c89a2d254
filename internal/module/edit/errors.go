package edit

import "errors"

// Module errors.
var (
	ErrNoImageReturned = errors.New("no image returned by image service")
	ErrInvalidImage    = errors.New("invalid image payload")
	ErrGatewayStatus   = errors.New("image service returned an error")
)
