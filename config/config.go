// Package config loads vsm machine definitions from YAML and builds them
// against a scene through a vsm.Factory.
//
// A definition looks like:
//
//	name: sphere
//	entity: Sphere
//	initial: Origin
//	states:
//	  - name: Origin
//	    action:
//	      type: set_position
//	      params: {target: Sphere, position: [0, 0, 0]}
//	  - name: Destination
//	transitions:
//	  - from: Origin
//	    to: Destination
//	    trigger:
//	      type: pick
//	      params: {target: Sphere}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/enetx/vsm"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("config: invalid definition")
	// ErrNoEntity is returned when a definition does not name its entity.
	ErrNoEntity = fmt.Errorf("%w: entity is required", ErrInvalid)
	// ErrNoStates is returned when a definition has no states.
	ErrNoStates = fmt.Errorf("%w: at least one state is required", ErrInvalid)
	// ErrNoType is returned when an action or trigger has no type.
	ErrNoType = fmt.Errorf("%w: component type is required", ErrInvalid)
)

// Definition describes one machine.
type Definition struct {
	Name        string          `yaml:"name"`
	Entity      string          `yaml:"entity"`
	Initial     string          `yaml:"initial"`
	States      []StateDef      `yaml:"states"`
	Transitions []TransitionDef `yaml:"transitions"`
}

// StateDef describes a state and its optional entry action.
type StateDef struct {
	Name   string     `yaml:"name"`
	Action *Component `yaml:"action"`
}

// TransitionDef describes an edge. A nil Trigger declares an untriggered edge.
type TransitionDef struct {
	From    string     `yaml:"from"`
	To      string     `yaml:"to"`
	Trigger *Component `yaml:"trigger"`
}

// Component names a factory kind and its parameters.
type Component struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

// Load parses a YAML definition and validates it.
func Load(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("config: failed to parse definition: %w", err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// LoadFile reads and parses the definition stored at path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	return Load(data)
}

// LoadFS reads and parses the definition stored at path in fsys.
func LoadFS(fsys fs.FS, path string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	return Load(data)
}

// InitialState returns the configured initial state, defaulting to the first
// state.
func (d *Definition) InitialState() string {
	if d.Initial != "" || len(d.States) == 0 {
		return d.Initial
	}

	return d.States[0].Name
}

// Validate checks the definition's structure. Component parameters are checked
// later, by the factory, when the definition is built.
func (d *Definition) Validate() error {
	if d.Entity == "" {
		return ErrNoEntity
	}

	if len(d.States) == 0 {
		return ErrNoStates
	}

	known := make(map[string]bool, len(d.States))

	for i, st := range d.States {
		if st.Name == "" {
			return fmt.Errorf("%w: states[%d]: name is required", ErrInvalid, i)
		}

		if known[st.Name] {
			return fmt.Errorf("%w: states[%d]: duplicate state %q", ErrInvalid, i, st.Name)
		}

		known[st.Name] = true

		if st.Action != nil && st.Action.Type == "" {
			return fmt.Errorf("states[%d].action: %w", i, ErrNoType)
		}
	}

	if initial := d.InitialState(); !known[initial] {
		return fmt.Errorf("%w: initial state %q is not declared", ErrInvalid, initial)
	}

	for i, tr := range d.Transitions {
		for _, name := range []string{tr.From, tr.To} {
			if !known[name] {
				return fmt.Errorf("%w: transitions[%d]: unknown state %q", ErrInvalid, i, name)
			}
		}

		if tr.Trigger != nil && tr.Trigger.Type == "" {
			return fmt.Errorf("transitions[%d].trigger: %w", i, ErrNoType)
		}
	}

	return nil
}

// Build creates a stopped machine from the definition. Entities are resolved in
// sc, which also becomes the machine's event source. A nil f uses
// vsm.NewFactory(). The definition's name is applied before opts.
func (d *Definition) Build(sc vsm.Scene, f *vsm.Factory, opts ...vsm.Option) (*vsm.Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if sc == nil {
		return nil, fmt.Errorf("config: %w: %s (no scene)", vsm.ErrUnknownEntity, d.Entity)
	}

	if f == nil {
		f = vsm.NewFactory()
	}

	entity, ok := sc.Entity(d.Entity)
	if !ok {
		return nil, fmt.Errorf("config: %w: %s", vsm.ErrUnknownEntity, d.Entity)
	}

	if d.Name != "" {
		opts = append([]vsm.Option{vsm.WithName(d.Name)}, opts...)
	}

	m := vsm.New(entity, sc, opts...)

	for i, st := range d.States {
		var action vsm.Action

		if st.Action != nil {
			a, err := f.Action(st.Action.Type, sc, st.Action.Params)
			if err != nil {
				return nil, fmt.Errorf("config: states[%d] (%s): %w", i, st.Name, err)
			}

			action = a
		}

		if err := m.AddState(vsm.State(st.Name), action); err != nil {
			return nil, fmt.Errorf("config: states[%d]: %w", i, err)
		}
	}

	for i, tr := range d.Transitions {
		var trigger vsm.Trigger

		if tr.Trigger != nil {
			t, err := f.Trigger(tr.Trigger.Type, sc, tr.Trigger.Params)
			if err != nil {
				return nil, fmt.Errorf("config: transitions[%d]: %w", i, err)
			}

			trigger = t
		}

		if err := m.AddTransition(vsm.State(tr.From), vsm.State(tr.To), trigger); err != nil {
			return nil, fmt.Errorf("config: transitions[%d]: %w", i, err)
		}
	}

	if err := m.SetStartingState(vsm.State(d.InitialState())); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return m, nil
}
