package vsm

import (
	"encoding/json"
	"fmt"

	"github.com/enetx/g"
)

// Snapshot is the serializable form of a machine's runtime position.
// The graph itself is not part of it: a snapshot is restored into a machine
// built with the same states.
type Snapshot struct {
	Name    string               `json:"name,omitempty"`
	Current State                `json:"current"`
	History g.Slice[State]       `json:"history"`
	Data    g.Map[g.String, any] `json:"data"`
}

// Snapshot returns the machine's current runtime position.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Name:    m.name,
		Current: m.current,
		History: m.history.Clone(),
		Data:    m.ctx.Data.Iter().Collect(),
	}
}

// Restore moves a stopped machine to the position recorded in s. The next
// Start runs the entry action of the restored state, so the entity's visual
// state matches it again.
func (m *Machine) Restore(s Snapshot) error {
	if err := m.mutable(); err != nil {
		return err
	}

	if _, ok := m.states[s.Current]; !ok {
		return &ErrUnknownState{Op: "Restore", State: s.Current}
	}

	for st := range s.History.Iter() {
		if _, ok := m.states[st]; !ok {
			return &ErrUnknownState{Op: "Restore", State: st}
		}
	}

	history := s.History.Clone()
	if history.Len() == 0 {
		history = g.SliceOf(s.Current)
	}

	m.current = s.Current
	m.hasCurrent = true
	m.entered = false
	m.history = history
	m.ctx.State = s.Current
	m.ctx.Previous = ""
	m.ctx.Event = Event{}

	if s.Data != nil {
		m.ctx.Data = s.Data.ToMapSafe()
	} else {
		m.ctx.Data = g.NewMapSafe[g.String, any]()
	}

	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (m *Machine) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (m *Machine) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("vsm: failed to unmarshal machine snapshot: %w", err)
	}

	return m.Restore(s)
}
