package descriptor

import (
	"errors"
	"fmt"

	"github.com/artifactgraph/resolve/coordinate"
)

// ErrNoDescriptor marks the session-scoped negative cache entry recorded
// when a coordinate's descriptor cannot be resolved or parsed (§4.E "a
// negative-cache entry NO_DESCRIPTOR is recorded... to avoid re-attempts").
var ErrNoDescriptor = errors.New("descriptor: no descriptor available")

// CircularRelocationError is returned when a coordinate repeats on the
// relocation chain (§4.E step 3 loop bound).
type CircularRelocationError struct {
	Chain []coordinate.Coordinate
	Repeat coordinate.Coordinate
}

func (e *CircularRelocationError) Error() string {
	return fmt.Sprintf("descriptor: circular relocation back to %s (chain: %v)", e.Repeat, e.Chain)
}
