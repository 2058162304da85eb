package engine

import (
	"errors"
	"fmt"
)

// TransitionError describes a control call made in a state that does not
// accept it, e.g. Pause while idle.
//
// Control methods never return it to callers: invalid calls are silent
// no-ops. It exists so the rejection can be logged with structure and so the
// transition table can be tested directly.
type TransitionError struct {
	From   State
	Action string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s while %s", e.Action, e.From)
}

// IsTransitionError reports whether err (or anything it wraps) is a
// TransitionError.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
