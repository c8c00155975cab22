package card

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidParams = errors.New("invalid card params")
)
