package vsm_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/enetx/vsm"
	"github.com/enetx/vsm/scene"
)

// rigid has a position but no visibility.
type rigid struct{ pos Vector3 }

func (r *rigid) Name() string          { return "rigid" }
func (r *rigid) Position() Vector3     { return r.pos }
func (r *rigid) SetPosition(p Vector3) { r.pos = p }

func TestSetPositionAction(t *testing.T) {
	n := scene.New().AddNode("n", Vec3(1, 2, 3))

	assertNoError(t, NewSetPositionAction(n, Vec3(4, 5, 6)).Execute(context.Background(), nil))
	assertEqual(t, n.Position(), Vec3(4, 5, 6))
}

func TestSetPositionAction_MissingParameters(t *testing.T) {
	n := scene.New().AddNode("n", Vec3(1, 2, 3))

	var missing *ErrMissingParameter

	err := (&SetPositionAction{Target: n}).Execute(context.Background(), nil)
	assertTrue(t, errors.As(err, &missing))
	assertEqual(t, missing.Parameter, "position")
	assertEqual(t, missing.Action, KindSetPosition)
	assertEqual(t, n.Position(), Vec3(1, 2, 3))

	err = (&SetPositionAction{}).Execute(context.Background(), nil)
	assertTrue(t, errors.As(err, &missing))
	assertEqual(t, missing.Parameter, "target")
}

func TestSetVisibilityAction(t *testing.T) {
	n := scene.New().AddNode("n", Vector3{})
	ctx := context.Background()

	assertNoError(t, NewSetVisibilityAction(n, false).Execute(ctx, nil))
	assertFalse(t, n.Visible())

	var missing *ErrMissingParameter
	assertTrue(t, errors.As((&SetVisibilityAction{Target: n}).Execute(ctx, nil), &missing))
	assertEqual(t, missing.Parameter, "visible")

	err := NewSetVisibilityAction(&rigid{}, true).Execute(ctx, nil)
	assertTrue(t, errors.Is(err, ErrUnsupported))
}

func TestLogAction_WithoutContext(t *testing.T) {
	assertNoError(t, NewLogAction("bare").Execute(context.Background(), nil))
	assertEqual(t, NewLogAction("x").Name(), KindLog)
}

func TestSequenceAction(t *testing.T) {
	n := scene.New().AddNode("n", Vector3{})
	ctx := context.Background()

	var ran []string

	step := func(name string, err error) Action {
		return Func(name, func(context.Context, *Context) error {
			ran = append(ran, name)
			return err
		})
	}

	seq := NewSequenceAction("", NewSetPositionAction(n, Vec3(1, 0, 0)), step("one", nil), NewSetVisibilityAction(n, false))
	assertEqual(t, seq.Name(), KindSequence)
	assertEqual(t, len(seq.Actions()), 3)
	assertNoError(t, seq.Execute(ctx, nil))
	assertEqual(t, n.Position(), Vec3(1, 0, 0))
	assertFalse(t, n.Visible())

	ran = nil
	boom := errors.New("boom")
	seq = NewSequenceAction("intro", step("one", nil), step("two", boom), step("three", nil))
	assertEqual(t, seq.Name(), "intro")

	err := seq.Execute(ctx, nil)
	assertTrue(t, errors.Is(err, boom))
	assertEqual(t, err.Error(), "step 1 (two): boom")
	assertEqual(t, len(ran), 2)
}

func TestFunc_NilFunction(t *testing.T) {
	a := Func("nothing", nil)
	assertEqual(t, a.Name(), "nothing")
	assertNoError(t, a.Execute(context.Background(), nil))
}

func TestTriggerKeys(t *testing.T) {
	n := scene.New().AddNode("n", Vector3{})

	assertEqual(t, NewPickTrigger(n).Key(), "pick:n")
	assertEqual(t, NewPickTrigger(nil).Key(), "pick:*")
	assertEqual(t, NewEventTrigger("open", n).Key(), "event:open@n")
	assertEqual(t, NewEventTrigger("open", nil).Key(), "event:open@*")
	assertEqual(t, NewPickTrigger(n).Kind(), KindPick)
	assertEqual(t, NewEventTrigger("open", nil).Kind(), KindEvent)
}

func TestTriggerMatches(t *testing.T) {
	sc := scene.New()
	a := sc.AddNode("a", Vector3{})
	b := sc.AddNode("b", Vector3{})

	pick := NewPickTrigger(a)
	assertTrue(t, pick.Matches(Event{Kind: EventPick, Target: a}))
	assertFalse(t, pick.Matches(Event{Kind: EventPick, Target: b}))
	assertFalse(t, pick.Matches(Event{Kind: EventPick}))
	assertFalse(t, pick.Matches(Event{Kind: EventCustom, Target: a}))
	assertTrue(t, NewPickTrigger(nil).Matches(Event{Kind: EventPick, Target: b}))

	ev := NewEventTrigger("open", nil)
	assertTrue(t, ev.Matches(Event{Kind: EventCustom, Name: "open"}))
	assertFalse(t, ev.Matches(Event{Kind: EventCustom, Name: "close"}))
	assertFalse(t, ev.Matches(Event{Kind: EventPick, Name: "open"}))
}

func TestVector3_String(t *testing.T) {
	assertEqual(t, Vec3(1, 0.5, -2).String(), "(1, 0.5, -2)")
}
