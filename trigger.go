package vsm

// Built-in trigger kinds, as registered in the Factory.
const (
	KindPick  = "pick"
	KindEvent = "event"
)

// PickTrigger fires once per pointer pick on Target. A nil Target fires on a
// pick of any entity.
type PickTrigger struct {
	Target Entity
}

// NewPickTrigger returns a trigger firing on picks of target.
func NewPickTrigger(target Entity) *PickTrigger {
	return &PickTrigger{Target: target}
}

// Kind returns KindPick.
func (t *PickTrigger) Kind() string { return KindPick }

// Key identifies the trigger by its target, so equal picks share one
// subscription and one outgoing edge per state.
func (t *PickTrigger) Key() string { return KindPick + ":" + entityName(t.Target) }

// Matches reports whether ev is a pick of Target.
func (t *PickTrigger) Matches(ev Event) bool {
	return ev.Kind == EventPick && targets(t.Target, ev.Target)
}

// Listen subscribes fn to picks of Target on src.
func (t *PickTrigger) Listen(src EventSource, fn func(Event)) Subscription {
	return src.Subscribe(EventPick, t.Target, func(ev Event) {
		if t.Matches(ev) {
			fn(ev)
		}
	})
}

// EventTrigger fires on a named custom scene event, optionally restricted to
// events concerning Target.
type EventTrigger struct {
	Name   string
	Target Entity
}

// NewEventTrigger returns a trigger firing on the custom event name.
func NewEventTrigger(name string, target Entity) *EventTrigger {
	return &EventTrigger{Name: name, Target: target}
}

// Kind returns KindEvent.
func (t *EventTrigger) Kind() string { return KindEvent }

// Key identifies the trigger by event name and target.
func (t *EventTrigger) Key() string {
	return KindEvent + ":" + t.Name + "@" + entityName(t.Target)
}

// Matches reports whether ev is the custom event Name concerning Target.
func (t *EventTrigger) Matches(ev Event) bool {
	return ev.Kind == EventCustom && ev.Name == t.Name && targets(t.Target, ev.Target)
}

// Listen subscribes fn to the custom event Name on src.
func (t *EventTrigger) Listen(src EventSource, fn func(Event)) Subscription {
	return src.Subscribe(EventCustom, t.Target, func(ev Event) {
		if t.Matches(ev) {
			fn(ev)
		}
	})
}

// targets reports whether an event about got satisfies a filter on want.
// Entities are identified by name.
func targets(want, got Entity) bool {
	if want == nil {
		return true
	}

	return got != nil && got.Name() == want.Name()
}

func entityName(e Entity) string {
	if e == nil {
		return "*"
	}

	return e.Name()
}
