package coordinate

import "errors"

// ErrInvalidInput is wrapped by errors produced when a coordinate, version,
// or range string is malformed (§7 InvalidInput).
var ErrInvalidInput = errors.New("invalid input")
