package codec

import "errors"

// Sentinel kinds for document decoding errors.
var (
	ErrInvalidDocument = errors.New("invalid script document")
	ErrNoActions       = errors.New("script has no actions")
)
