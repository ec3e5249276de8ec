package workflow

// State is a lifecycle state of a sale, settlement or invoice
type State string

const (
	// Sale lifecycle
	StateCreated State = "CREATED"
	StateMapped  State = "MAPPED"
	StateClosed  State = "CLOSED"

	// Settlement lifecycle
	StatePending  State = "PENDING"
	StateExported State = "EXPORTED"
	StatePaid     State = "PAID"

	// Invoice lifecycle
	StateDraft  State = "DRAFT"
	StateIssued State = "ISSUED"
)

// IsTerminal returns true if no further transition leaves the state
func (s State) IsTerminal() bool {
	switch s {
	case StateClosed, StatePaid, StateIssued:
		return true
	}
	return false
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state belongs to one of the lifecycles
func (s State) IsValid() bool {
	switch s {
	case StateCreated, StateMapped, StateClosed,
		StatePending, StateExported, StatePaid,
		StateDraft, StateIssued:
		return true
	}
	return false
}
