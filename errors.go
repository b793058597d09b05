package vsm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRunning is returned by Fire and TransitionTo while the machine is stopped.
	ErrNotRunning = errors.New("vsm: machine is not running")
	// ErrRunning is returned when the graph is mutated, or Start is called, on a running machine.
	ErrRunning = errors.New("vsm: machine is running; stop it first")
	// ErrEmptyState is returned by AddState for an empty state name.
	ErrEmptyState = errors.New("vsm: state name is empty")
	// ErrNoStartingState is returned by Start when no starting state was set.
	ErrNoStartingState = errors.New("vsm: no starting state set")
	// ErrUnsupported is returned by actions whose target lacks a required capability.
	ErrUnsupported = errors.New("vsm: entity does not support the operation")
	// ErrUnknownKind is returned by the Factory for unregistered action or trigger kinds.
	ErrUnknownKind = errors.New("vsm: unknown kind")
)

// ErrUnknownState is returned when an operation references a state that has not
// been registered.
type ErrUnknownState struct {
	// Op is the operation that referenced the state (e.g. "AddTransition").
	Op    string
	State State
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("vsm: %s: unknown state %q", e.Op, e.State)
}

// ErrDuplicateState is returned by AddState for a name that is already registered.
type ErrDuplicateState struct {
	State State
}

func (e *ErrDuplicateState) Error() string {
	return fmt.Sprintf("vsm: state %q already registered", e.State)
}

// ErrAmbiguousTransition is reported by Start when two outgoing transitions of
// the same state are both untriggered or share a trigger key. The machine
// refuses to start to avoid non-deterministic behavior.
type ErrAmbiguousTransition struct {
	From State
	// Key is the shared trigger key; empty means both edges are untriggered.
	Key string
}

func (e *ErrAmbiguousTransition) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("vsm: ambiguous transitions from state %q: more than one untriggered edge", e.From)
	}

	return fmt.Sprintf("vsm: ambiguous transitions from state %q on trigger %q", e.From, e.Key)
}

// ErrInvalidTransition is returned when no outgoing transition of the current
// state matches the fired trigger or the requested target.
type ErrInvalidTransition struct {
	From State
	To   State
	Key  string
}

func (e *ErrInvalidTransition) Error() string {
	if e.To != "" {
		return fmt.Sprintf("vsm: no transition from state %q to %q", e.From, e.To)
	}

	return fmt.Sprintf("vsm: no transition from state %q on trigger %q", e.From, e.Key)
}

// ErrMissingParameter is returned by an action executed without a required parameter.
type ErrMissingParameter struct {
	Action    string
	Parameter string
}

func (e *ErrMissingParameter) Error() string {
	return fmt.Sprintf("vsm: action %s: missing parameter %q", e.Action, e.Parameter)
}

// ErrAction wraps the failure (returned error or recovered panic) of an entry
// action. The state change that ran the action has already happened.
type ErrAction struct {
	Action string
	State  State
	Err    error
}

func (e *ErrAction) Error() string {
	return fmt.Sprintf("vsm: entry action %s of state %q failed: %v", e.Action, e.State, e.Err)
}

// Unwrap allows errors.Is and errors.As to inspect the wrapped error.
func (e *ErrAction) Unwrap() error { return e.Err }
