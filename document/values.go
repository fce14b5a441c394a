package document

// HTTP methods selectable through the edit surface. The generation service may
// hand back arbitrary method text; normalization does not coerce it, the UI
// option list is what keeps the domain closed.
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Priorities selectable through the edit surface.
var Priorities = []string{"High", "Medium", "Low"}

// Implementation state values for the frontState/backState columns. Stored as
// decimal strings on the wire.
const (
	StateNotStarted = "0"
	StateInProgress = "1"
	StateDone       = "2"
)

// States lists the state values in display order.
var States = []string{StateNotStarted, StateInProgress, StateDone}

var stateLabels = map[string]string{
	StateNotStarted: "Not Started",
	StateInProgress: "In Progress",
	StateDone:       "Done",
}

// StateLabel maps a stored state value to its display label. Unknown values
// map to the not-started label so a corrupt cell still renders.
func StateLabel(state string) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	return stateLabels[StateNotStarted]
}

// ValidMethod reports whether m is in the closed method domain.
func ValidMethod(m string) bool {
	for _, v := range Methods {
		if v == m {
			return true
		}
	}
	return false
}
