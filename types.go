package vsm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/enetx/g"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

type (
	// State names a node of the machine's graph.
	State g.String

	// EventKind classifies the scene events a Trigger can observe.
	EventKind string
)

const (
	// EventPick is emitted by the scene when the pointer picks an entity.
	EventPick EventKind = "pick"
	// EventCustom is a named, host-defined scene event.
	EventCustom EventKind = "custom"
)

type (
	// Entity is a non-owning handle to the scene object a machine controls.
	// Its lifetime belongs to the host scene.
	Entity interface {
		Name() string
		Position() Vector3
		SetPosition(p Vector3)
	}

	// Visibility is an optional Entity capability used by SetVisibilityAction.
	Visibility interface {
		Visible() bool
		SetVisible(visible bool)
	}

	// Event is a scene or input event delivered to triggers.
	Event struct {
		Kind   EventKind
		Name   string  // name of an EventCustom event
		Target Entity  // entity the event concerns, nil for scene-wide events
		Point  Vector3 // picked point in world space
		Data   any
	}

	// Subscription is returned by an EventSource; Remove detaches the callback.
	Subscription interface {
		Remove()
	}

	// EventSource delivers scene events of one kind, optionally filtered to a
	// single target entity (nil target receives every event of the kind).
	EventSource interface {
		Subscribe(kind EventKind, target Entity, fn func(Event)) Subscription
	}

	// Resolver looks entities up by identifier.
	Resolver interface {
		Entity(name string) (Entity, bool)
	}

	// Scene is the host collaborator: entity lookup plus event subscription.
	Scene interface {
		EventSource
		Resolver
	}

	// Action is a unit of behaviour executed when a state is entered.
	// Implementations must tolerate repeated execution.
	Action interface {
		Name() string
		Execute(ctx context.Context, actx *Context) error
	}

	// Trigger is a stateless predicate over scene events. It never mutates the
	// machine; it only signals that it fired.
	//
	// Key identifies the trigger for routing and ambiguity checks: two triggers
	// with the same Key are considered identical.
	Trigger interface {
		Kind() string
		Key() string
		Matches(ev Event) bool
		Listen(src EventSource, fn func(Event)) Subscription
	}

	// Transition is a directed edge From -> To, optionally guarded by a Trigger.
	// Untriggered edges only move through TransitionTo.
	Transition struct {
		From    State
		To      State
		Trigger Trigger
	}

	// StateChange is delivered to observers after each state change.
	// Previous is empty for the initial entry performed by Start.
	StateChange struct {
		Previous State
		Current  State
		Trigger  string // Key of the trigger that fired, empty for manual moves
	}

	// ErrorHandler receives runtime failures that do not stop the machine.
	ErrorHandler func(err error)

	state struct {
		name   State
		action Action
	}

	// request is a queued Fire or TransitionTo issued while a step was running.
	request struct {
		trigger Trigger
		event   Event
		target  State
		manual  bool
		scene   bool
		entry   bool
	}

	// Machine drives one entity through a named-state graph. It is not safe for
	// concurrent use; see SyncMachine.
	Machine struct {
		id     string
		name   string
		entity Entity
		source EventSource

		states      map[State]*state
		order       g.Slice[State]
		transitions []Transition

		starting   State
		current    State
		hasCurrent bool
		entered    bool
		running    bool
		history    g.Slice[State]

		subs     []Subscription
		eventCtx context.Context
		deliver  func(t Trigger, ev Event)

		stepping     bool
		detachOnExit bool
		pending      []request
		stopRequest  *atomic.Bool

		observers observers
		ctx       *Context

		logger   *slog.Logger
		sink     Sink
		metrics  *Metrics
		tracer   trace.Tracer
		onError  ErrorHandler
		provider trace.TracerProvider
	}

	// SyncMachine is a thread-safe wrapper around a Machine.
	// All methods lock; Stop never blocks and may be called from inside an action.
	SyncMachine struct {
		m  *Machine
		mu sync.RWMutex

		inboxMu sync.Mutex
		inbox   []request
	}
)
