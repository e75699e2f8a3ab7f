package scenario

import (
	"image"
	"testing"
	"time"
)

func validScenario() *Scenario {
	return &Scenario{
		Name:                 "test",
		DetectionQuality:     480,
		EndConditionOperator: OperatorOr,
		Events: []*Event{
			{
				ID:                "e1",
				Name:              "Event one",
				ConditionOperator: OperatorAnd,
				Enabled:           true,
				Conditions: []*Condition{
					{
						Name:             "c1",
						TemplateID:       "t1",
						Area:             image.Rect(0, 0, 10, 10),
						DetectionType:    DetectExact,
						Threshold:        90,
						ShouldBeDetected: true,
					},
				},
				Actions: []Action{
					{Type: ActionTypeClick, X: 5, Y: 5},
				},
			},
		},
		EndConditions: []*EndCondition{
			{EventID: "e1", MaxExecutions: 3},
		},
	}
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr bool
	}{
		{"valid", func(*Scenario) {}, false},
		{"missing name", func(s *Scenario) { s.Name = "" }, true},
		{"negative quality", func(s *Scenario) { s.DetectionQuality = -1 }, true},
		{"invalid end operator", func(s *Scenario) { s.EndConditionOperator = 0 }, true},
		{
			"end operator irrelevant without end conditions",
			func(s *Scenario) {
				s.EndConditionOperator = 0
				s.EndConditions = nil
			},
			false,
		},
		{"duplicate event id", func(s *Scenario) {
			s.Events = append(s.Events, &Event{ID: "e1"})
		}, true},
		{"event without id", func(s *Scenario) { s.Events[0].ID = "" }, true},
		{"invalid condition operator", func(s *Scenario) { s.Events[0].ConditionOperator = 99 }, true},
		{"invalid detection type", func(s *Scenario) { s.Events[0].Conditions[0].DetectionType = 99 }, true},
		{"threshold above 100", func(s *Scenario) { s.Events[0].Conditions[0].Threshold = 101 }, true},
		{"threshold below 0", func(s *Scenario) { s.Events[0].Conditions[0].Threshold = -1 }, true},
		{"exact detection without area", func(s *Scenario) {
			s.Events[0].Conditions[0].Area = image.Rectangle{}
		}, true},
		{"whole-screen detection without area", func(s *Scenario) {
			s.Events[0].Conditions[0].DetectionType = DetectWholeScreen
			s.Events[0].Conditions[0].Area = image.Rectangle{}
		}, false},
		{"pause without duration", func(s *Scenario) {
			s.Events[0].Actions = append(s.Events[0].Actions, Action{Type: ActionTypePause})
		}, true},
		{"unknown action type", func(s *Scenario) {
			s.Events[0].Actions = append(s.Events[0].Actions, Action{Type: "teleport"})
		}, true},
		{"end condition below 1", func(s *Scenario) {
			s.EndConditions[0].MaxExecutions = 0
		}, true},
		{"end condition on unknown event", func(s *Scenario) {
			s.EndConditions[0].EventID = "missing"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scn := validScenario()
			tt.mutate(scn)
			err := scn.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOperator_StringAndValidity(t *testing.T) {
	if OperatorAnd.String() != "AND" || OperatorOr.String() != "OR" {
		t.Errorf("Operator strings = %q/%q", OperatorAnd.String(), OperatorOr.String())
	}
	if !OperatorAnd.IsValid() || !OperatorOr.IsValid() {
		t.Error("Known operators must be valid")
	}
	if Operator(0).IsValid() || Operator(7).IsValid() {
		t.Error("Unknown operators must be invalid")
	}
}

func TestDetectionType_StringAndValidity(t *testing.T) {
	if DetectExact.String() != "Exact" || DetectWholeScreen.String() != "WholeScreen" {
		t.Errorf("DetectionType strings = %q/%q", DetectExact.String(), DetectWholeScreen.String())
	}
	if !DetectExact.IsValid() || !DetectWholeScreen.IsValid() {
		t.Error("Known detection types must be valid")
	}
	if DetectionType(0).IsValid() {
		t.Error("Zero detection type must be invalid")
	}
}

func TestScenario_EnabledEvents(t *testing.T) {
	scn := &Scenario{
		Name: "s",
		Events: []*Event{
			{ID: "a", Enabled: true},
			{ID: "b", Enabled: false},
			{ID: "c", Enabled: true},
		},
	}

	enabled := scn.EnabledEvents()
	if len(enabled) != 2 {
		t.Fatalf("EnabledEvents length = %d, want 2", len(enabled))
	}
	// Declared order is priority order.
	if enabled[0].ID != "a" || enabled[1].ID != "c" {
		t.Errorf("EnabledEvents order = %s, %s; want a, c", enabled[0].ID, enabled[1].ID)
	}
}

func TestScenario_EventByID(t *testing.T) {
	scn := validScenario()

	if ev := scn.EventByID("e1"); ev == nil || ev.ID != "e1" {
		t.Errorf("EventByID(e1) = %v", ev)
	}
	if ev := scn.EventByID("missing"); ev != nil {
		t.Errorf("EventByID(missing) = %v, want nil", ev)
	}
}

func TestAction_PauseRequiresDuration(t *testing.T) {
	ev := &Event{
		ID: "e1",
		Actions: []Action{
			{Type: ActionTypePause, Duration: time.Second},
		},
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Pause with duration failed validation: %v", err)
	}
}
