package registry

import (
	"errors"
	"fmt"
)

// ErrMissingIdentity is returned by Resolve for an appearance with no usable
// name. The appearance should be skipped.
var ErrMissingIdentity = errors.New("appearance has no usable name")

// InvariantError is the panic value for contract violations such as
// attaching to a key Resolve never returned. It is not meant to be recovered.
type InvariantError struct {
	Op     string
	Key    string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("registry invariant violated in %s(%q): %s", e.Op, e.Key, e.Reason)
}
