package crypto

import (
	"github.com/oklog/ulid/v2"
)

// NewULID generates a time-ordered, lexically sortable identifier.
func NewULID() string {
	return ulid.Make().String()
}
