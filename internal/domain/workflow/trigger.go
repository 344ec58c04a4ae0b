package workflow

// Trigger represents an event that can cause a step change
type Trigger string

const (
	TriggerReview Trigger = "REVIEW"
	TriggerEdit   Trigger = "EDIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
