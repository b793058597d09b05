// Package vsm provides a finite state machine that drives the behavior of an
// entity inside an interactive scene. Each state owns an optional entry Action
// and transitions between states are guarded by Triggers that observe scene
// events such as pointer picks. It is built with types and utilities from the
// github.com/enetx/g library.
package vsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/enetx/g"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const instrumentationName = "github.com/enetx/vsm"

// New creates a stopped machine bound to entity. src supplies the scene events
// triggers listen to; it may be nil when the host drives the machine only
// through Fire and TransitionTo.
func New(entity Entity, src EventSource, opts ...Option) *Machine {
	m := &Machine{
		id:          uuid.NewString(),
		entity:      entity,
		source:      src,
		states:      make(map[State]*state),
		stopRequest: atomic.NewBool(false),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.name == "" {
		m.name = m.id
	}

	m.logger = m.logger.With("machine", m.name)

	if m.sink == nil {
		m.sink = SlogSink(m.logger)
	}

	if m.provider == nil {
		m.provider = otel.GetTracerProvider()
	}

	m.tracer = m.provider.Tracer(instrumentationName)
	m.deliver = m.handleEvent
	m.ctx = newContext(m)

	return m
}

// ID returns the machine's unique identifier.
func (m *Machine) ID() string { return m.id }

// Name returns the machine's name (its ID unless WithName was given).
func (m *Machine) Name() string { return m.name }

// Entity returns the entity the machine is bound to.
func (m *Machine) Entity() Entity { return m.entity }

// Context returns the context shared by the machine's actions.
func (m *Machine) Context() *Context { return m.ctx }

// Current returns the current state, or None before a starting state is set.
func (m *Machine) Current() g.Option[State] {
	if !m.hasCurrent {
		return g.None[State]()
	}

	return g.Some(m.current)
}

// Running reports whether the machine is started and no stop is pending.
func (m *Machine) Running() bool {
	return m.running && !m.stopRequest.Load()
}

// History returns a copy of the visited states, starting state first.
func (m *Machine) History() g.Slice[State] {
	return m.history.Clone()
}

// States returns the registered states in registration order.
func (m *Machine) States() g.Slice[State] {
	return m.order.Clone()
}

// Transitions returns a copy of the registered transitions in order.
func (m *Machine) Transitions() []Transition {
	return slices.Clone(m.transitions)
}

// OnStateChange registers an observer called after every state change.
func (m *Machine) OnStateChange(fn func(StateChange)) Handle {
	return m.observers.add(fn)
}

// AddState registers a state with an optional entry action.
func (m *Machine) AddState(name State, action Action) error {
	if err := m.mutable(); err != nil {
		return err
	}

	if name == "" {
		return ErrEmptyState
	}

	if _, ok := m.states[name]; ok {
		return &ErrDuplicateState{State: name}
	}

	m.states[name] = &state{name: name, action: action}
	m.order.Push(name)

	return nil
}

// SetStartingState makes name the current state. The next Start runs its entry
// action. History restarts at name.
func (m *Machine) SetStartingState(name State) error {
	if err := m.mutable(); err != nil {
		return err
	}

	if _, ok := m.states[name]; !ok {
		return &ErrUnknownState{Op: "SetStartingState", State: name}
	}

	m.starting = name
	m.current = name
	m.hasCurrent = true
	m.entered = false
	m.history = g.Slice[State]{name}
	m.ctx.State = name
	m.ctx.Previous = ""

	return nil
}

// AddTransition appends an edge from -> to. A nil trigger adds an untriggered
// edge that only TransitionTo can follow.
func (m *Machine) AddTransition(from, to State, trigger Trigger) error {
	if err := m.mutable(); err != nil {
		return err
	}

	for _, s := range []State{from, to} {
		if _, ok := m.states[s]; !ok {
			return &ErrUnknownState{Op: "AddTransition", State: s}
		}
	}

	m.transitions = append(m.transitions, Transition{From: from, To: to, Trigger: trigger})

	return nil
}

// SetStateAction attaches or replaces the entry action of a registered state.
func (m *Machine) SetStateAction(name State, action Action) error {
	if err := m.mutable(); err != nil {
		return err
	}

	st, ok := m.states[name]
	if !ok {
		return &ErrUnknownState{Op: "SetStateAction", State: name}
	}

	st.action = action

	return nil
}

// Validate checks the graph: a starting state is set, every transition
// endpoint exists, and no state has two untriggered or identically triggered
// outgoing transitions.
func (m *Machine) Validate() error {
	if !m.hasCurrent {
		return ErrNoStartingState
	}

	if _, ok := m.states[m.current]; !ok {
		return &ErrUnknownState{Op: "Start", State: m.current}
	}

	seen := make(map[State]g.Set[string])

	for _, t := range m.transitions {
		for _, s := range []State{t.From, t.To} {
			if _, ok := m.states[s]; !ok {
				return &ErrUnknownState{Op: "Start", State: s}
			}
		}

		keys, ok := seen[t.From]
		if !ok {
			keys = g.NewSet[string]()
			seen[t.From] = keys
		}

		key := triggerKey(t.Trigger)
		if keys.Contains(key) {
			return &ErrAmbiguousTransition{From: t.From, Key: key}
		}

		keys.Insert(key)
	}

	return nil
}

// Start validates the graph, subscribes every trigger to the scene and, unless
// the machine is resuming after Stop, runs the entry action of the current
// state. Structural errors are returned before any action runs. An entry action
// failure is returned as *ErrAction with the machine left running.
//
// Start issued from inside an action after Stop subscribes right away; the
// entry action, if due, is queued behind the running step.
func (m *Machine) Start(ctx context.Context) error {
	m.applyStopRequest()

	if m.running {
		return ErrRunning
	}

	if err := m.Validate(); err != nil {
		return err
	}

	m.running = true
	m.eventCtx = context.WithoutCancel(ctx)

	// A restart from inside an action drops the old subscriptions now, so the
	// end of the step does not take the new ones with it.
	if m.detachOnExit {
		m.detachOnExit = false
		m.detach()
	}

	m.attach()

	m.logger.InfoContext(ctx, "machine started", "state", m.current, "resumed", m.entered)

	if m.entered {
		return nil
	}

	if m.stepping {
		m.pending = append(m.pending, request{entry: true})
		return nil
	}

	return m.run(ctx, func() error { return m.enter(ctx, "", m.current, Event{}, "") })
}

// Stop detaches the machine from its event sources. The current state is kept;
// a later Start resumes from it. Stop is safe to call from inside an action:
// the detach is deferred until the running step returns and queued requests
// are dropped.
func (m *Machine) Stop() {
	m.stopRequest.Store(false)

	if !m.running {
		return
	}

	m.running = false
	m.pending = nil

	if m.stepping {
		m.detachOnExit = true
	} else {
		m.detach()
	}

	m.logger.Info("machine stopped", "state", m.current)
}

// Reset returns a stopped machine to its starting state and clears history and
// context data. The next Start runs the starting state's entry action again.
func (m *Machine) Reset() error {
	if err := m.mutable(); err != nil {
		return err
	}

	m.ctx.Data = g.NewMapSafe[g.String, any]()
	m.ctx.Previous = ""
	m.ctx.Event = Event{}

	if m.starting == "" {
		return nil
	}

	return m.SetStartingState(m.starting)
}

// Fire delivers a fired trigger. If an outgoing transition of the current state
// carries a trigger with the same key and the trigger matches ev, the machine
// moves along it. A zero ev skips the Matches check.
//
// Fire issued from inside an action is queued and processed once the running
// step completes; it then returns nil.
func (m *Machine) Fire(ctx context.Context, trigger Trigger, ev Event) error {
	m.applyStopRequest()

	if !m.running {
		return ErrNotRunning
	}

	if trigger == nil {
		return &ErrInvalidTransition{From: m.current}
	}

	return m.dispatch(ctx, request{trigger: trigger, event: ev})
}

// TransitionTo moves the machine along a registered edge from the current state
// to name, whether that edge is triggered or not.
func (m *Machine) TransitionTo(ctx context.Context, name State) error {
	if _, ok := m.states[name]; !ok {
		return &ErrUnknownState{Op: "TransitionTo", State: name}
	}

	return m.dispatch(ctx, request{target: name, manual: true})
}

// mutable reports ErrRunning when the graph may not be changed.
func (m *Machine) mutable() error {
	m.applyStopRequest()

	if m.running {
		return ErrRunning
	}

	return nil
}

func (m *Machine) requestStop() { m.stopRequest.Store(true) }

func (m *Machine) applyStopRequest() {
	if m.stopRequest.Swap(false) {
		m.Stop()
	}
}

func (m *Machine) attach() {
	if m.source == nil {
		return
	}

	listening := g.NewSet[string]()

	for _, tr := range m.transitions {
		t := tr.Trigger
		if t == nil || listening.Contains(t.Key()) {
			continue
		}

		listening.Insert(t.Key())

		if sub := t.Listen(m.source, func(ev Event) { m.deliver(t, ev) }); sub != nil {
			m.subs = append(m.subs, sub)
		}
	}
}

func (m *Machine) detach() {
	for _, sub := range m.subs {
		sub.Remove()
	}

	m.subs = nil
}

// handleEvent is the scene callback of every attached trigger.
func (m *Machine) handleEvent(t Trigger, ev Event) {
	err := m.dispatch(m.eventCtx, request{trigger: t, event: ev, scene: true})
	if errors.Is(err, ErrNotRunning) {
		m.metrics.ignored(m.name, "not_running")
	}
}

func (m *Machine) dispatch(ctx context.Context, r request) error {
	m.applyStopRequest()

	if !m.running {
		return ErrNotRunning
	}

	if m.stepping {
		m.pending = append(m.pending, r)
		return nil
	}

	return m.run(ctx, func() error { return m.settle(ctx, r, m.process(ctx, r)) })
}

// run executes step and then every request queued while it ran.
func (m *Machine) run(ctx context.Context, step func() error) error {
	m.stepping = true

	err := step()

	for {
		m.applyStopRequest()

		if !m.running || len(m.pending) == 0 {
			break
		}

		r := m.pending[0]
		m.pending = m.pending[1:]

		if perr := m.settle(ctx, r, m.process(ctx, r)); perr != nil {
			err = errors.Join(err, perr)
		}
	}

	m.pending = nil
	m.stepping = false

	if m.detachOnExit {
		m.detachOnExit = false
		m.detach()
	}

	return err
}

// process resolves a single request against the current state.
func (m *Machine) process(ctx context.Context, r request) error {
	if !m.running {
		return ErrNotRunning
	}

	from := m.current

	if r.entry {
		return m.enter(ctx, "", from, Event{}, "")
	}

	if r.manual {
		for _, t := range m.transitions {
			if t.From == from && t.To == r.target {
				return m.enter(ctx, from, t.To, Event{}, "")
			}
		}

		return &ErrInvalidTransition{From: from, To: r.target}
	}

	key := r.trigger.Key()

	if r.event.Kind == "" || r.trigger.Matches(r.event) {
		for _, t := range m.transitions {
			if t.From == from && t.Trigger != nil && t.Trigger.Key() == key {
				return m.enter(ctx, from, t.To, r.event, key)
			}
		}
	}

	return &ErrInvalidTransition{From: from, Key: key}
}

// settle drops the expected misses of scene-driven events: a trigger is
// subscribed once for the whole graph, so most events do not apply to the
// current state.
func (m *Machine) settle(ctx context.Context, r request, err error) error {
	var invalid *ErrInvalidTransition
	if r.scene && errors.As(err, &invalid) {
		m.metrics.ignored(m.name, "no_transition")
		m.logger.DebugContext(ctx, "event ignored", "state", invalid.From, "trigger", invalid.Key)

		return nil
	}

	return err
}

// enter moves the machine into to, runs its entry action and notifies
// observers. The move is kept when the action fails.
func (m *Machine) enter(ctx context.Context, from, to State, ev Event, key string) error {
	ctx, span := m.tracer.Start(ctx, "vsm.transition", trace.WithAttributes(
		attribute.String("vsm.machine", m.name),
		attribute.String("vsm.from", string(from)),
		attribute.String("vsm.to", string(to)),
		attribute.String("vsm.trigger", key),
	))
	defer span.End()

	m.current = to
	m.hasCurrent = true
	m.entered = true

	if from != "" {
		m.history.Push(to)
		m.metrics.transition(m.name, from, to)
	}

	m.ctx.State = to
	m.ctx.Previous = from
	m.ctx.Event = ev

	var err error
	if st := m.states[to]; st.action != nil {
		err = m.execute(ctx, st)
	}

	m.logger.DebugContext(ctx, "state entered", "from", from, "to", to, "trigger", key)
	m.observers.notify(StateChange{Previous: from, Current: to, Trigger: key})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.report(ctx, err)
	}

	return err
}

// execute runs an entry action, recovering from panics.
func (m *Machine) execute(ctx context.Context, st *state) (err error) {
	name := st.action.Name()

	ctx, span := m.tracer.Start(ctx, "vsm.action", trace.WithAttributes(
		attribute.String("vsm.machine", m.name),
		attribute.String("vsm.state", string(st.name)),
		attribute.String("vsm.action", name),
	))

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &ErrAction{Action: name, State: st.name, Err: fmt.Errorf("panic: %v", r)}
		}

		m.metrics.action(m.name, st.name, name, time.Since(start), err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	if aerr := st.action.Execute(ctx, m.ctx); aerr != nil {
		err = &ErrAction{Action: name, State: st.name, Err: aerr}
	}

	return err
}

func (m *Machine) report(ctx context.Context, err error) {
	m.logger.ErrorContext(ctx, "entry action failed", "state", m.current, "error", err)

	if m.onError != nil {
		m.onError(err)
	}
}

func triggerKey(t Trigger) string {
	if t == nil {
		return ""
	}

	return t.Key()
}
