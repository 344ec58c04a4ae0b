package workflow

// State is a step of the registration form lifecycle
type State string

const (
	// StateEditing is data entry: fields, signature, certification
	StateEditing State = "EDITING"

	// StateReviewing shows the rendered document and the send options
	StateReviewing State = "REVIEWING"
)

var validStates = map[State]bool{
	StateEditing:   true,
	StateReviewing: true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known form step
func (s State) IsValid() bool {
	return validStates[s]
}
