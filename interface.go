package vsm

import (
	"context"

	"github.com/enetx/g"
)

// StateMachine is the surface shared by Machine and SyncMachine.
type StateMachine interface {
	AddState(name State, action Action) error
	SetStartingState(name State) error
	AddTransition(from, to State, trigger Trigger) error
	SetStateAction(name State, action Action) error
	Start(ctx context.Context) error
	Stop()
	Reset() error
	Fire(ctx context.Context, trigger Trigger, ev Event) error
	TransitionTo(ctx context.Context, name State) error
	Current() g.Option[State]
	Running() bool
	History() g.Slice[State]
	States() g.Slice[State]
	OnStateChange(fn func(StateChange)) Handle
	ToDOT() g.String
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Interface compliance check.
var _ StateMachine = (*Machine)(nil)
