package graph

import "errors"

// Common errors.
var (
	ErrMissingFeed  = errors.New("placeholder not fed")
	ErrForeignNode  = errors.New("node belongs to another graph")
	ErrNotScalar    = errors.New("value is not a scalar")
	ErrNoDerivative = errors.New("operation has no derivative")
)
