package vsm

import (
	"github.com/enetx/g"
	"github.com/enetx/g/cmp"
)

// ToDOT generates a DOT language representation of the machine's graph.
// Untriggered edges are drawn dashed and labeled "manual".
func (m *Machine) ToDOT() g.String {
	b := g.NewBuilder()

	b.WriteString("digraph \"")
	b.WriteString(g.String(m.name))
	b.WriteString("\" {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString(
		"  node [shape=circle, style=filled, fillcolor=\"#f8f8f8\", color=\"#444444\", fontname=\"Helvetica\"];\n",
	)
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	if m.starting != "" {
		b.WriteString("  __start [shape=point, style=invis];\n")
		b.WriteString(g.Format("  __start -> \"{}\" [label=\" initial\"];\n\n", m.starting))
	}

	grouped := g.NewMap[g.Pair[State, State], g.Slice[g.String]]()

	var order g.Slice[g.Pair[State, State]]

	for _, t := range m.transitions {
		key := g.Pair[State, State]{Key: t.From, Value: t.To}

		label := g.String("manual")
		if t.Trigger != nil {
			label = g.String(t.Trigger.Key())
		}

		if _, ok := grouped[key]; !ok {
			order.Push(key)
		}

		grouped.Entry(key).
			AndModify(func(s *g.Slice[g.String]) { s.Push(label) }).
			OrInsert(g.SliceOf(label))
	}

	states := m.States()
	states.SortBy(cmp.Cmp)

	for name := range states.Iter() {
		var attrs g.Slice[g.String]
		attrs.Push(g.Format("label=\"{}\"", name))

		if m.hasCurrent && name == m.current {
			attrs.Push("fillcolor=\"#90ee90\"", "shape=doublecircle")
		}

		if st := m.states[name]; st.action != nil {
			attrs.Push(g.Format("tooltip=\"{}\"", st.action.Name()))
		}

		b.WriteString(g.Format("  \"{}\" [{}];\n", name, attrs.Join(", ")))
	}

	b.WriteByte('\n')

	for pair := range order.Iter() {
		labels := grouped[pair]

		var edge g.Slice[g.String]
		edge.Push(g.Format("label=\" {} \"", labels.Join("\\n")))

		if labels.Len() == 1 && labels[0] == "manual" {
			edge.Push("style=dashed")
		}

		b.WriteString(g.Format("  \"{}\" -> \"{}\" [{}];\n", pair.Key, pair.Value, edge.Join(", ")))
	}

	b.WriteString("}\n")

	return b.String()
}
