package common

import (
	"github.com/oklog/ulid/v2"
)

// NewULID returns a lexicographically time-ordered id.
// ulid.Make uses a process-wide monotonic entropy source, so ids made
// within the same millisecond still sort in creation order.
func NewULID() (string, error) {
	return ulid.Make().String(), nil
}
