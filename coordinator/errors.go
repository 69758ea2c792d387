package coordinator

import (
	"errors"
	"fmt"

	"github.com/najoast/hashmine/protocol"
)

// Validation failures. Each one is a protocol violation.
var (
	ErrUnknownRoom = errors.New("unknown room")
	ErrBadParent   = errors.New("parent room is not linked to current room")
	ErrBadAnswer   = errors.New("solution does not match expected answer")
)

// ViolationError reports a result that failed validation. It is fatal for
// the whole run and is never retried.
type ViolationError struct {
	// Coordinator that rejected the result
	Coordinator string

	// Message is the offending result
	Message protocol.Message

	// Err is one of ErrUnknownRoom, ErrBadParent or ErrBadAnswer
	Err error
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("protocol violation: %s rejected result %s: %v", e.Coordinator, e.Message, e.Err)
}

func (e *ViolationError) Unwrap() error {
	return e.Err
}
