package collection

import "errors"

var (
	ErrInvalidName       = errors.New("invalid collection name")
	ErrNotFound          = errors.New("collection not found")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
