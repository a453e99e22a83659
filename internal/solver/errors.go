package solver

import "errors"

var (
	// ErrInvalidOptions indicates construction parameters outside their valid range.
	ErrInvalidOptions = errors.New("solver: invalid options")

	// ErrSnapshot indicates a snapshot or colour blob could not be read or decoded.
	ErrSnapshot = errors.New("solver: snapshot unreadable")

	// ErrColorCount indicates a colour list whose length differs from the particle count.
	ErrColorCount = errors.New("solver: colour count does not match particle count")
)
