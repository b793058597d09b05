package vsm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingParam is returned by builders when a required parameter is absent.
	ErrMissingParam = errors.New("vsm: missing parameter")
	// ErrInvalidParam is returned by builders when a parameter has the wrong shape.
	ErrInvalidParam = errors.New("vsm: invalid parameter")
	// ErrUnknownEntity is returned when a parameter names an entity the scene lacks.
	ErrUnknownEntity = errors.New("vsm: unknown entity")
)

// Params are the decoded parameters of an action or trigger definition.
type Params map[string]any

type (
	// ActionBuilder creates an action from parameters. Entities are looked up
	// through r; f allows building nested actions.
	ActionBuilder func(f *Factory, r Resolver, p Params) (Action, error)
	// TriggerBuilder creates a trigger from parameters.
	TriggerBuilder func(f *Factory, r Resolver, p Params) (Trigger, error)
)

// Factory creates actions and triggers by kind identifier.
// Hosts register their own kinds next to the built-in ones.
type Factory struct {
	actions  map[string]ActionBuilder
	triggers map[string]TriggerBuilder
}

// NewFactory returns a factory with the built-in kinds registered.
func NewFactory() *Factory {
	return (&Factory{
		actions:  make(map[string]ActionBuilder),
		triggers: make(map[string]TriggerBuilder),
	}).
		RegisterAction(KindSetPosition, setPositionBuilder).
		RegisterAction(KindLog, logBuilder).
		RegisterAction(KindSetVisibility, setVisibilityBuilder).
		RegisterAction(KindSequence, sequenceBuilder).
		RegisterTrigger(KindPick, pickBuilder).
		RegisterTrigger(KindEvent, eventBuilder)
}

// RegisterAction registers or replaces the builder for an action kind.
func (f *Factory) RegisterAction(kind string, b ActionBuilder) *Factory {
	f.actions[kind] = b
	return f
}

// RegisterTrigger registers or replaces the builder for a trigger kind.
func (f *Factory) RegisterTrigger(kind string, b TriggerBuilder) *Factory {
	f.triggers[kind] = b
	return f
}

// Action builds an action of the given kind.
func (f *Factory) Action(kind string, r Resolver, p Params) (Action, error) {
	b, ok := f.actions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: action %q", ErrUnknownKind, kind)
	}

	return b(f, r, p)
}

// Trigger builds a trigger of the given kind.
func (f *Factory) Trigger(kind string, r Resolver, p Params) (Trigger, error) {
	b, ok := f.triggers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: trigger %q", ErrUnknownKind, kind)
	}

	return b(f, r, p)
}

// String returns the string parameter key.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Bool returns the boolean parameter key.
func (p Params) Bool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// Entity resolves the entity named by the string parameter key.
func (p Params) Entity(r Resolver, key string) (Entity, error) {
	name, ok := p.String(key)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}

	if r == nil {
		return nil, fmt.Errorf("%w: %s (no scene)", ErrUnknownEntity, name)
	}

	e, ok := r.Entity(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}

	return e, nil
}

// Vector decodes the parameter key as a Vector3. It accepts a three element
// list [x, y, z] or a mapping with x, y and z keys.
func (p Params) Vector(key string) (Vector3, error) {
	raw, ok := p[key]
	if !ok {
		return Vector3{}, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}

	var xyz [3]float64

	switch v := raw.(type) {
	case Vector3:
		return v, nil
	case []any:
		if len(v) != len(xyz) {
			return Vector3{}, fmt.Errorf("%w: %s: want 3 components, got %d", ErrInvalidParam, key, len(v))
		}

		for i, c := range v {
			n, ok := number(c)
			if !ok {
				return Vector3{}, fmt.Errorf("%w: %s[%d]: not a number", ErrInvalidParam, key, i)
			}

			xyz[i] = n
		}
	case map[string]any:
		for i, axis := range []string{"x", "y", "z"} {
			n, ok := number(v[axis])
			if !ok {
				return Vector3{}, fmt.Errorf("%w: %s.%s: not a number", ErrInvalidParam, key, axis)
			}

			xyz[i] = n
		}
	default:
		return Vector3{}, fmt.Errorf("%w: %s: unsupported type %T", ErrInvalidParam, key, raw)
	}

	return Vec3(xyz[0], xyz[1], xyz[2]), nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func setPositionBuilder(_ *Factory, r Resolver, p Params) (Action, error) {
	target, err := p.Entity(r, "target")
	if err != nil {
		return nil, err
	}

	pos, err := p.Vector("position")
	if err != nil {
		return nil, err
	}

	return NewSetPositionAction(target, pos), nil
}

func logBuilder(_ *Factory, _ Resolver, p Params) (Action, error) {
	msg, ok := p.String("message")
	if !ok || msg == "" {
		return nil, fmt.Errorf("%w: message", ErrMissingParam)
	}

	action := NewLogAction(msg)

	if lvl, ok := p.String("level"); ok {
		if err := action.Level.UnmarshalText([]byte(strings.ToUpper(lvl))); err != nil {
			return nil, fmt.Errorf("%w: level: %w", ErrInvalidParam, err)
		}
	}

	return action, nil
}

func setVisibilityBuilder(_ *Factory, r Resolver, p Params) (Action, error) {
	target, err := p.Entity(r, "target")
	if err != nil {
		return nil, err
	}

	visible, ok := p.Bool("visible")
	if !ok {
		return nil, fmt.Errorf("%w: visible", ErrMissingParam)
	}

	return NewSetVisibilityAction(target, visible), nil
}

func sequenceBuilder(f *Factory, r Resolver, p Params) (Action, error) {
	steps, ok := p["actions"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: actions", ErrMissingParam)
	}

	actions := make([]Action, 0, len(steps))

	for i, step := range steps {
		def, ok := step.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: actions[%d]: not a mapping", ErrInvalidParam, i)
		}

		kind, _ := def["type"].(string)
		params, _ := def["params"].(map[string]any)

		action, err := f.Action(kind, r, params)
		if err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}

		actions = append(actions, action)
	}

	name, _ := p.String("name")

	return NewSequenceAction(name, actions...), nil
}

func pickBuilder(_ *Factory, r Resolver, p Params) (Trigger, error) {
	if _, ok := p["target"]; !ok {
		return NewPickTrigger(nil), nil
	}

	target, err := p.Entity(r, "target")
	if err != nil {
		return nil, err
	}

	return NewPickTrigger(target), nil
}

func eventBuilder(_ *Factory, r Resolver, p Params) (Trigger, error) {
	name, ok := p.String("name")
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingParam)
	}

	var target Entity

	if _, ok := p["target"]; ok {
		e, err := p.Entity(r, "target")
		if err != nil {
			return nil, err
		}

		target = e
	}

	return NewEventTrigger(name, target), nil
}
