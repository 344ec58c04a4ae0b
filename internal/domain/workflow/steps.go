package workflow

// NewFormSteps builds the two-step form lifecycle.
// Leaving data entry is guarded by the completeness gate; going back is always allowed.
func NewFormSteps(ready GuardFunc) StateMachine {
	b := NewBuilder()
	b.Configure(StateEditing).
		PermitIf(TriggerReview, StateReviewing, ready)
	b.Configure(StateReviewing).
		Permit(TriggerEdit, StateEditing)
	return b.Build(StateEditing)
}
