package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"editing", StateEditing, true},
		{"reviewing", StateReviewing, true},
		{"unknown", State("SENT"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerReview.String(); got != "REVIEW" {
		t.Errorf("Trigger.String() = %v, want %v", got, "REVIEW")
	}
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateEditing)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}
	if config != builder.Configure(StateEditing) {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_PanicsOnInvalidState(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"configure", func() { NewBuilder().Configure(State("INVALID")) }},
		{"build", func() { NewBuilder().Build(State("INVALID")) }},
		{"permit", func() { NewBuilder().Configure(StateEditing).Permit(TriggerReview, State("INVALID")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("%s should panic on invalid state", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

func TestBuilder_BuildSnapshotsConfiguration(t *testing.T) {
	builder := NewBuilder()
	machine := builder.Build(StateEditing)

	builder.Configure(StateEditing).Permit(TriggerReview, StateReviewing)

	if machine.CanFire(TriggerReview) {
		t.Error("machine built before Permit() must not see the new transition")
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	machine := NewFormSteps(nil)

	err := machine.Fire(context.Background(), TriggerEdit)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateEditing {
		t.Errorf("State should remain %v, got %v", StateEditing, machine.State())
	}
}

func TestFormSteps_GuardedReview(t *testing.T) {
	ready := false
	machine := NewFormSteps(func(ctx context.Context) bool { return ready })

	if !machine.CanFire(TriggerReview) {
		t.Error("CanFire(REVIEW) should be true while editing")
	}

	err := machine.Fire(context.Background(), TriggerReview)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateEditing {
		t.Errorf("State after refused REVIEW = %v, want %v", machine.State(), StateEditing)
	}

	ready = true
	if err := machine.Fire(context.Background(), TriggerReview); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateReviewing {
		t.Errorf("State after REVIEW = %v, want %v", machine.State(), StateReviewing)
	}

	if err := machine.Fire(context.Background(), TriggerEdit); err != nil {
		t.Fatalf("Fire(EDIT) failed: %v", err)
	}
	if machine.State() != StateEditing {
		t.Errorf("State after EDIT = %v, want %v", machine.State(), StateEditing)
	}
}

func TestFormSteps_NilGuardAlwaysPasses(t *testing.T) {
	machine := NewFormSteps(nil)
	if err := machine.Fire(context.Background(), TriggerReview); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateReviewing {
		t.Errorf("State = %v, want %v", machine.State(), StateReviewing)
	}
}
