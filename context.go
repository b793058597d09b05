package vsm

import (
	"log/slog"

	"github.com/enetx/g"
)

// Context is handed to every Action the machine executes.
// Data holds long-lived values shared between actions and is serialized with
// the machine snapshot. Event is the scene event that caused the transition;
// it is the zero Event for the initial entry and for TransitionTo.
type Context struct {
	Machine  *Machine
	Entity   Entity
	State    State
	Previous State
	Event    Event
	Data     *g.MapSafe[g.String, any]
	Logger   *slog.Logger
	Sink     Sink
}

func newContext(m *Machine) *Context {
	return &Context{
		Machine: m,
		Entity:  m.entity,
		Data:    g.NewMapSafe[g.String, any](),
		Logger:  m.logger,
		Sink:    m.sink,
	}
}
