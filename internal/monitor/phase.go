package monitor

// Phase is the dashboard's lifecycle stage.
type Phase int

const (
	// PhaseAwaitingController waits for the data controller to appear or
	// for the operator to start it.
	PhaseAwaitingController Phase = iota
	// PhaseRunning draws live data.
	PhaseRunning
	// PhaseTerminating is final: the program is quitting.
	PhaseTerminating
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingController:
		return "awaiting controller"
	case PhaseRunning:
		return "running"
	case PhaseTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// event drives phase transitions.
type event int

const (
	evControllerFound event = iota
	evControllerLaunched
	evInterrupt
	evDetach
	evFeedClosed
)

// next returns the phase after e. Events that do not apply leave the
// phase unchanged.
func (p Phase) next(e event) Phase {
	switch p {
	case PhaseAwaitingController:
		switch e {
		case evControllerFound, evControllerLaunched:
			return PhaseRunning
		case evInterrupt:
			return PhaseTerminating
		}
	case PhaseRunning:
		switch e {
		case evInterrupt, evDetach, evFeedClosed:
			return PhaseTerminating
		}
	}
	return p
}
