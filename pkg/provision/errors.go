package provision

import (
	"errors"
	"fmt"
)

// Phase names the protocol step a failure happened in.
type Phase string

// Protocol phases.
const (
	PhaseValidate Phase = "validate"
	PhaseConnect  Phase = "connect"
	PhaseCatalog  Phase = "catalog"
	PhaseOpen     Phase = "open"
	PhaseDrop     Phase = "drop"
	PhaseCreate   Phase = "create"
	PhaseLoad     Phase = "load"
)

// Error kinds. Match them with errors.Is against an *Error.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrConnection     = errors.New("connection error")
	ErrCatalog        = errors.New("catalog error")
	ErrSchema         = errors.New("schema error")
	ErrLoad           = errors.New("load error")
)

// Error is a provisioning failure for one dataset.
type Error struct {
	Dataset string
	Phase   Phase
	Err     error

	// RollbackErr is set when dropping the partially created store also failed.
	RollbackErr error
}

// Kind returns the error kind for the failed phase.
func (e *Error) Kind() error {
	switch e.Phase {
	case PhaseValidate:
		return ErrInvalidRequest
	case PhaseConnect, PhaseOpen:
		return ErrConnection
	case PhaseCatalog:
		return ErrCatalog
	case PhaseDrop, PhaseCreate:
		return ErrSchema
	case PhaseLoad:
		return ErrLoad
	default:
		return nil
	}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("dataset %q: %s failed: %v", e.Dataset, e.Phase, e.Err)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf(" (rollback failed: %v)", e.RollbackErr)
	}
	return msg
}

// Is matches the kind sentinel of the failed phase.
func (e *Error) Is(target error) bool {
	kind := e.Kind()
	return kind != nil && target == kind
}

// Unwrap returns the primary cause followed by the rollback failure, if any.
func (e *Error) Unwrap() []error {
	if e.RollbackErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.RollbackErr}
}
