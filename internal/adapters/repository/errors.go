package repository

import "errors"

// Sentinel kinds for library errors.
var (
	ErrNotFound     = errors.New("script not found")
	ErrInvalidLimit = errors.New("invalid list limit")
	ErrInvalidID    = errors.New("record id is required")
)
