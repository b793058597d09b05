// Package scene is a minimal in-memory host scene for vsm machines. It keeps
// named nodes with a position and a visibility flag, and dispatches pick and
// custom events to subscribers.
package scene

import (
	"slices"
	"sync"

	"github.com/enetx/g"
	"github.com/enetx/vsm"
)

var _ vsm.Scene = (*Scene)(nil)

type handler struct {
	id     uint32
	kind   vsm.EventKind
	target string // node name, empty for every target
	fn     func(vsm.Event)
}

// Scene owns nodes and routes events to the callbacks subscribed to them.
// It is safe for concurrent use. Callbacks run on the goroutine that emitted
// the event, outside the scene's lock, so they may subscribe or unsubscribe.
type Scene struct {
	mu       sync.RWMutex
	nodes    g.Map[string, *Node]
	order    g.Slice[string]
	handlers []handler
	nextID   uint32
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{nodes: g.NewMap[string, *Node]()}
}

// AddNode creates a visible node at pos. An existing node with the same name is
// returned unchanged.
func (s *Scene) AddNode(name string, pos vsm.Vector3) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.nodes[name]; ok {
		return n
	}

	n := &Node{name: name, position: pos, visible: true}
	s.nodes[name] = n
	s.order.Push(name)

	return n
}

// RemoveNode deletes a node. Subscriptions filtered on it stay registered but
// receive nothing until a node with the same name is added again.
func (s *Scene) RemoveNode(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[name]; !ok {
		return false
	}

	delete(s.nodes, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })

	return true
}

// Node returns the named node.
func (s *Scene) Node(name string) g.Option[*Node] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.nodes[name]; ok {
		return g.Some(n)
	}

	return g.None[*Node]()
}

// Nodes returns the node names in insertion order.
func (s *Scene) Nodes() g.Slice[string] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.order.Clone()
}

// Entity implements vsm.Resolver.
func (s *Scene) Entity(name string) (vsm.Entity, bool) {
	n := s.Node(name)
	if n.IsNone() {
		return nil, false
	}

	return n.Some(), true
}

// Subscribe implements vsm.EventSource. A nil target receives every event of
// kind.
func (s *Scene) Subscribe(kind vsm.EventKind, target vsm.Entity, fn func(vsm.Event)) vsm.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	var name string
	if target != nil {
		name = target.Name()
	}

	s.nextID++
	s.handlers = append(s.handlers, handler{id: s.nextID, kind: kind, target: name, fn: fn})

	return &Handle{id: s.nextID, scene: s}
}

// Subscribers returns the number of registered callbacks.
func (s *Scene) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.handlers)
}

// Pick emits a pick event on the named node at point. It reports false, and
// emits nothing, when the node does not exist.
func (s *Scene) Pick(name string, point vsm.Vector3) bool {
	n := s.Node(name)
	if n.IsNone() {
		return false
	}

	s.Emit(vsm.Event{Kind: vsm.EventPick, Target: n.Some(), Point: point})

	return true
}

// Signal emits the custom event name about target, which may be nil.
func (s *Scene) Signal(name string, target vsm.Entity, data any) {
	s.Emit(vsm.Event{Kind: vsm.EventCustom, Name: name, Target: target, Data: data})
}

// Emit delivers ev to every matching subscriber in subscription order.
func (s *Scene) Emit(ev vsm.Event) {
	var target string
	if ev.Target != nil {
		target = ev.Target.Name()
	}

	s.mu.RLock()
	list := slices.Clone(s.handlers)
	s.mu.RUnlock()

	for _, h := range list {
		if h.kind != ev.Kind || (h.target != "" && h.target != target) {
			continue
		}

		if !s.subscribed(h.id) {
			continue
		}

		h.fn(ev)
	}
}

func (s *Scene) subscribed(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.ContainsFunc(s.handlers, func(h handler) bool { return h.id == id })
}

func (s *Scene) unsubscribe(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers = slices.DeleteFunc(s.handlers, func(h handler) bool { return h.id == id })
}

// Handle is the vsm.Subscription returned by Subscribe.
type Handle struct {
	id    uint32
	scene *Scene
	once  sync.Once
}

// Remove detaches the callback. It is safe to call concurrently and more than
// once; only the first call has an effect.
func (h *Handle) Remove() {
	if h == nil || h.scene == nil {
		return
	}

	h.once.Do(func() { h.scene.unsubscribe(h.id) })
}
