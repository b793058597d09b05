package vsm

import (
	"slices"
	"sync"
)

type observer struct {
	id uint64
	fn func(StateChange)
}

// observers is the registry behind OnStateChange. Callbacks are invoked
// synchronously in registration order; the machine never owns what they capture.
type observers struct {
	mu     sync.Mutex
	list   []observer
	nextID uint64
}

// Handle allows removing a registered observer.
type Handle struct {
	id  uint64
	reg *observers
}

// Remove unregisters the observer. It is safe to call more than once and from
// inside the observer itself.
func (h Handle) Remove() {
	if h.reg == nil {
		return
	}

	h.reg.remove(h.id)
}

func (o *observers) add(fn func(StateChange)) Handle {
	if fn == nil {
		return Handle{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	o.list = append(o.list, observer{id: o.nextID, fn: fn})

	return Handle{id: o.nextID, reg: o}
}

func (o *observers) remove(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.list = slices.DeleteFunc(o.list, func(ob observer) bool { return ob.id == id })
}

func (o *observers) notify(change StateChange) {
	o.mu.Lock()
	list := slices.Clone(o.list)
	o.mu.Unlock()

	for _, ob := range list {
		ob.fn(change)
	}
}
