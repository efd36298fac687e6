package workflow

// State represents a submission status in the approval lifecycle
type State string

const (
	StateDiajukan   State = "Diajukan"
	StateDivalidasi State = "Divalidasi"
	StateDiproses   State = "Diproses"
	StateDisetujui  State = "Disetujui"
	StateDitolak    State = "Ditolak"
	StateDibatalkan State = "Dibatalkan"
)

var validStates = map[State]bool{
	StateDiajukan:   true,
	StateDivalidasi: true,
	StateDiproses:   true,
	StateDisetujui:  true,
	StateDitolak:    true,
	StateDibatalkan: true,
}

var terminalStates = map[State]bool{
	StateDisetujui:  true,
	StateDitolak:    true,
	StateDibatalkan: true,
}

// AllStates lists every state in lifecycle order
func AllStates() []State {
	return []State{
		StateDiajukan,
		StateDivalidasi,
		StateDiproses,
		StateDisetujui,
		StateDitolak,
		StateDibatalkan,
	}
}

// PendingStates lists the states in which a submission still awaits an approver
func PendingStates() []State {
	return []State{StateDiajukan, StateDivalidasi, StateDiproses}
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
