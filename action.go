package vsm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/enetx/g"
)

// Built-in action kinds, as registered in the Factory.
const (
	KindSetPosition   = "set_position"
	KindLog           = "log"
	KindSetVisibility = "set_visibility"
	KindSequence      = "sequence"
)

// SetPositionAction moves Target to Position instantly.
// Both parameters are set by the host before the machine starts.
type SetPositionAction struct {
	Target   Entity
	Position g.Option[Vector3]
}

// NewSetPositionAction returns an action moving target to pos.
func NewSetPositionAction(target Entity, pos Vector3) *SetPositionAction {
	return &SetPositionAction{Target: target, Position: g.Some(pos)}
}

func (a *SetPositionAction) Name() string { return KindSetPosition }

// Execute fails with *ErrMissingParameter, leaving every entity untouched, when
// Target or Position is unset.
func (a *SetPositionAction) Execute(context.Context, *Context) error {
	if a.Target == nil {
		return &ErrMissingParameter{Action: a.Name(), Parameter: "target"}
	}

	if a.Position.IsNone() {
		return &ErrMissingParameter{Action: a.Name(), Parameter: "position"}
	}

	a.Target.SetPosition(a.Position.Some())

	return nil
}

// LogAction emits Message to a diagnostic sink. It never touches the entity
// and always succeeds.
type LogAction struct {
	Message string
	Level   slog.Level
	// Sink overrides the machine's sink when set.
	Sink Sink
}

// NewLogAction returns an info-level LogAction.
func NewLogAction(msg string) *LogAction {
	return &LogAction{Message: msg, Level: slog.LevelInfo}
}

func (a *LogAction) Name() string { return KindLog }

func (a *LogAction) Execute(ctx context.Context, actx *Context) error {
	sink := a.Sink

	var attrs []slog.Attr

	if actx != nil {
		if sink == nil {
			sink = actx.Sink
		}

		attrs = append(attrs, slog.String("state", string(actx.State)))

		if actx.Previous != "" {
			attrs = append(attrs, slog.String("previous", string(actx.Previous)))
		}

		if actx.Entity != nil {
			attrs = append(attrs, slog.String("entity", actx.Entity.Name()))
		}
	}

	if sink == nil {
		sink = SlogSink(nil)
	}

	sink.Emit(ctx, a.Level, a.Message, attrs...)

	return nil
}

// SetVisibilityAction shows or hides Target. The target must implement Visibility.
type SetVisibilityAction struct {
	Target  Entity
	Visible g.Option[bool]
}

// NewSetVisibilityAction returns an action setting target's visibility.
func NewSetVisibilityAction(target Entity, visible bool) *SetVisibilityAction {
	return &SetVisibilityAction{Target: target, Visible: g.Some(visible)}
}

func (a *SetVisibilityAction) Name() string { return KindSetVisibility }

func (a *SetVisibilityAction) Execute(context.Context, *Context) error {
	if a.Target == nil {
		return &ErrMissingParameter{Action: a.Name(), Parameter: "target"}
	}

	if a.Visible.IsNone() {
		return &ErrMissingParameter{Action: a.Name(), Parameter: "visible"}
	}

	v, ok := a.Target.(Visibility)
	if !ok {
		return fmt.Errorf("%w: %s cannot change visibility", ErrUnsupported, a.Target.Name())
	}

	v.SetVisible(a.Visible.Some())

	return nil
}

// SequenceAction runs its actions in order and stops at the first failure.
type SequenceAction struct {
	name    string
	actions []Action
}

// NewSequenceAction creates a sequence of actions.
func NewSequenceAction(name string, actions ...Action) *SequenceAction {
	if name == "" {
		name = KindSequence
	}

	return &SequenceAction{name: name, actions: actions}
}

func (a *SequenceAction) Name() string { return a.name }

// Actions returns the sequence's children.
func (a *SequenceAction) Actions() []Action { return a.actions }

func (a *SequenceAction) Execute(ctx context.Context, actx *Context) error {
	for i, action := range a.actions {
		if err := action.Execute(ctx, actx); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, action.Name(), err)
		}
	}

	return nil
}

// ActionFunc adapts a function to an entry action.
type ActionFunc func(ctx context.Context, actx *Context) error

type funcAction struct {
	name string
	fn   ActionFunc
}

// Func wraps fn as an Action called name.
func Func(name string, fn ActionFunc) Action {
	return &funcAction{name: name, fn: fn}
}

func (a *funcAction) Name() string { return a.name }

func (a *funcAction) Execute(ctx context.Context, actx *Context) error {
	if a.fn == nil {
		return nil
	}

	return a.fn(ctx, actx)
}
