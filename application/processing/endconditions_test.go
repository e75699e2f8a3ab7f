package processing

import (
	"testing"

	"pixelwarden/domain/scenario"
)

func TestEndConditionTracker_SingleCondition(t *testing.T) {
	stops := 0
	tracker := NewEndConditionTracker(
		scenario.OperatorAnd,
		[]*scenario.EndCondition{{EventID: "e1", MaxExecutions: 3}},
		func() { stops++ },
	)

	ev := &scenario.Event{ID: "e1"}

	for i := 1; i <= 2; i++ {
		if tracker.OnEventTriggered(ev) {
			t.Fatalf("trigger %d: stop signalled too early", i)
		}
	}
	if !tracker.OnEventTriggered(ev) {
		t.Fatal("third trigger should signal stop")
	}
	if stops != 1 {
		t.Errorf("stop callback fired %d times, want exactly 1", stops)
	}
	if tracker.Executions("e1") != 3 {
		t.Errorf("executions = %d, want 3", tracker.Executions("e1"))
	}

	// Counters stay monotonic and the callback never refires.
	if !tracker.OnEventTriggered(ev) {
		t.Error("tracker must keep signalling stop once satisfied")
	}
	if stops != 1 {
		t.Errorf("stop callback fired %d times after extra trigger, want 1", stops)
	}
	if tracker.Executions("e1") != 4 {
		t.Errorf("executions = %d, want 4", tracker.Executions("e1"))
	}
}

func TestEndConditionTracker_Operators(t *testing.T) {
	conditions := []*scenario.EndCondition{
		{EventID: "e1", MaxExecutions: 1},
		{EventID: "e2", MaxExecutions: 2},
	}
	e1 := &scenario.Event{ID: "e1"}
	e2 := &scenario.Event{ID: "e2"}

	t.Run("AND requires all", func(t *testing.T) {
		tracker := NewEndConditionTracker(scenario.OperatorAnd, conditions, nil)

		if tracker.OnEventTriggered(e1) {
			t.Error("e1 alone must not satisfy AND")
		}
		if tracker.OnEventTriggered(e2) {
			t.Error("e2 below max must not satisfy AND")
		}
		if !tracker.OnEventTriggered(e2) {
			t.Error("all conditions satisfied, expected stop")
		}
	})

	t.Run("OR requires any", func(t *testing.T) {
		tracker := NewEndConditionTracker(scenario.OperatorOr, conditions, nil)

		if !tracker.OnEventTriggered(e1) {
			t.Error("e1 reaching max must satisfy OR")
		}
	})
}

func TestEndConditionTracker_UnwatchedEvent(t *testing.T) {
	tracker := NewEndConditionTracker(
		scenario.OperatorOr,
		[]*scenario.EndCondition{{EventID: "e1", MaxExecutions: 1}},
		nil,
	)

	other := &scenario.Event{ID: "other"}
	for i := 0; i < 5; i++ {
		if tracker.OnEventTriggered(other) {
			t.Fatal("unwatched event must never trigger stop")
		}
	}
	if tracker.Executions("e1") != 0 {
		t.Error("unwatched triggers must not increment other counters")
	}
}

func TestEndConditionTracker_NoConditions(t *testing.T) {
	tracker := NewEndConditionTracker(scenario.OperatorAnd, nil, func() {
		t.Error("stop callback must never fire without end conditions")
	})

	ev := &scenario.Event{ID: "e1"}
	for i := 0; i < 10; i++ {
		if tracker.OnEventTriggered(ev) {
			t.Fatal("tracker without conditions must never signal stop")
		}
	}
	if tracker.Stopped() {
		t.Error("Stopped() = true, want false")
	}
}
