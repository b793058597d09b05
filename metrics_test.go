package vsm

import (
	"context"
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEntity struct {
	name string
	pos  Vector3
}

func (e *stubEntity) Name() string          { return e.name }
func (e *stubEntity) Position() Vector3     { return e.pos }
func (e *stubEntity) SetPosition(p Vector3) { e.pos = p }

// stubSource delivers every event to every subscriber.
type stubSource struct {
	fns map[int]func(Event)
	n   int
}

type stubSub struct {
	src *stubSource
	id  int
}

func (s stubSub) Remove() { delete(s.src.fns, s.id) }

func (s *stubSource) Subscribe(_ EventKind, _ Entity, fn func(Event)) Subscription {
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}

	s.n++
	s.fns[s.n] = fn

	return stubSub{src: s, id: s.n}
}

func (s *stubSource) emit(ev Event) {
	for _, fn := range s.fns {
		fn(ev)
	}
}

func TestMetrics_RecordsTransitionsAndActions(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	mt := NewMetrics(reg)

	box := &stubEntity{name: "box"}
	src := &stubSource{}
	pick := NewPickTrigger(box)

	m := New(box, src, WithName("door"), WithMetrics(mt), WithLogger(slogt.New(t)))
	require.NoError(t, m.AddState("closed", Func("shut", func(context.Context, *Context) error { return nil })))
	require.NoError(t, m.AddState("open", Func("fail", func(context.Context, *Context) error {
		return errors.New("stuck")
	})))
	require.NoError(t, m.AddTransition("closed", "open", pick))
	require.NoError(t, m.SetStartingState("closed"))
	require.NoError(t, m.Start(context.Background()))

	src.emit(Event{Kind: EventPick, Target: box})
	src.emit(Event{Kind: EventPick, Target: box})

	assert.InDelta(t, 1, testutil.ToFloat64(mt.transitions.WithLabelValues("door", "closed", "open")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(mt.actionRuns.WithLabelValues("door", "closed", "shut", outcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(mt.actionRuns.WithLabelValues("door", "open", "fail", outcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(mt.ignoredEvents.WithLabelValues("door", "no_transition")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(mt.actionDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var mt *Metrics

	assert.NotPanics(t, func() {
		mt.transition("m", "a", "b")
		mt.action("m", "a", "x", 0, nil)
		mt.ignored("m", "no_transition")
	})
}

func TestMetrics_UnregisteredCollectors(t *testing.T) {
	t.Parallel()

	mt := NewMetrics(nil)
	mt.transition("m", "a", "b")

	assert.InDelta(t, 1, testutil.ToFloat64(mt.transitions.WithLabelValues("m", "a", "b")), 0)
}
