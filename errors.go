package sqlmap

import "errors"

var (
	// ErrAllocation indicates that memory for a map, an entry key copy or a
	// resized bucket array could not be obtained. The failed operation leaves
	// the map in its prior state.
	ErrAllocation = errors.New("memory allocation failed")

	// ErrInvalidHandle indicates use of a map handle that was never issued or
	// has already been freed. This is a caller contract violation.
	ErrInvalidHandle = errors.New("invalid map handle")
)
