package vsm

import (
	"context"

	"github.com/enetx/g"
)

// Interface compliance check.
var _ StateMachine = (*SyncMachine)(nil)

// Sync wraps m for use from several goroutines. Scene events reaching m are
// serialized through the wrapper. m must not be used directly afterwards,
// except through Context.Machine from inside an action.
func (m *Machine) Sync() *SyncMachine {
	sm := &SyncMachine{m: m}
	m.deliver = sm.enqueue

	return sm
}

// enqueue buffers a scene event. If the lock is held (possibly by an action
// running on this very goroutine) the holder processes it before returning.
func (sm *SyncMachine) enqueue(t Trigger, ev Event) {
	sm.inboxMu.Lock()
	sm.inbox = append(sm.inbox, request{trigger: t, event: ev, scene: true})
	sm.inboxMu.Unlock()

	sm.drain()
}

func (sm *SyncMachine) take() []request {
	sm.inboxMu.Lock()
	defer sm.inboxMu.Unlock()

	inbox := sm.inbox
	sm.inbox = nil

	return inbox
}

func (sm *SyncMachine) queued() bool {
	sm.inboxMu.Lock()
	defer sm.inboxMu.Unlock()

	return len(sm.inbox) > 0
}

// drain applies a pending stop request and processes buffered events. It is
// called after every unlock; when the lock is taken, its holder drains instead.
func (sm *SyncMachine) drain() {
	for sm.queued() || sm.m.stopRequest.Load() {
		if !sm.mu.TryLock() {
			return
		}

		sm.m.applyStopRequest()

		for _, r := range sm.take() {
			sm.m.handleEvent(r.trigger, r.event)
		}

		sm.mu.Unlock()
	}
}

// AddState is the thread-safe version of Machine.AddState.
func (sm *SyncMachine) AddState(name State, action Action) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.AddState(name, action)
}

// SetStartingState is the thread-safe version of Machine.SetStartingState.
func (sm *SyncMachine) SetStartingState(name State) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.SetStartingState(name)
}

// AddTransition is the thread-safe version of Machine.AddTransition.
func (sm *SyncMachine) AddTransition(from, to State, trigger Trigger) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.AddTransition(from, to, trigger)
}

// SetStateAction is the thread-safe version of Machine.SetStateAction.
func (sm *SyncMachine) SetStateAction(name State, action Action) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.SetStateAction(name, action)
}

// Start is the thread-safe version of Machine.Start.
func (sm *SyncMachine) Start(ctx context.Context) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.Start(ctx)
}

// Stop records a stop request and applies it right away when the machine is
// idle. When an action is running, on this or another goroutine, the request is
// applied as soon as that action returns; no further action runs after it.
func (sm *SyncMachine) Stop() {
	sm.m.requestStop()
	sm.drain()
}

// Reset is the thread-safe version of Machine.Reset.
func (sm *SyncMachine) Reset() error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.Reset()
}

// Fire is the thread-safe version of Machine.Fire.
// Actions must not call it; they use Context.Machine instead.
func (sm *SyncMachine) Fire(ctx context.Context, trigger Trigger, ev Event) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.Fire(ctx, trigger, ev)
}

// TransitionTo is the thread-safe version of Machine.TransitionTo.
// Actions must not call it; they use Context.Machine instead.
func (sm *SyncMachine) TransitionTo(ctx context.Context, name State) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.TransitionTo(ctx, name)
}

// Current is the thread-safe version of Machine.Current.
func (sm *SyncMachine) Current() g.Option[State] {
	defer sm.drain()
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.Current()
}

// Running is the thread-safe version of Machine.Running.
func (sm *SyncMachine) Running() bool {
	defer sm.drain()
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.Running()
}

// History is the thread-safe version of Machine.History.
func (sm *SyncMachine) History() g.Slice[State] {
	defer sm.drain()
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.History()
}

// States is the thread-safe version of Machine.States.
func (sm *SyncMachine) States() g.Slice[State] {
	defer sm.drain()
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.States()
}

// OnStateChange registers an observer. Observers run on the goroutine that
// performed the transition, with the lock held.
func (sm *SyncMachine) OnStateChange(fn func(StateChange)) Handle {
	return sm.m.OnStateChange(fn)
}

// ToDOT is the thread-safe version of Machine.ToDOT.
func (sm *SyncMachine) ToDOT() g.String {
	defer sm.drain()
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.ToDOT()
}

// MarshalJSON implements the json.Marshaler interface for thread-safe
// serialization of the machine's snapshot.
func (sm *SyncMachine) MarshalJSON() ([]byte, error) {
	defer sm.drain()
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for thread-safe
// restoration of the machine's snapshot.
func (sm *SyncMachine) UnmarshalJSON(data []byte) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.UnmarshalJSON(data)
}

// Snapshot is the thread-safe version of Machine.Snapshot.
func (sm *SyncMachine) Snapshot() Snapshot {
	defer sm.drain()
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.Snapshot()
}

// Restore is the thread-safe version of Machine.Restore.
func (sm *SyncMachine) Restore(s Snapshot) error {
	defer sm.drain()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.Restore(s)
}
