package session

// Mode is the session's top-level interaction state.
type Mode int

const (
	// ModeIdle accepts card selection and swap starts.
	ModeIdle Mode = iota
	// ModeAwaitingTarget waits for a boosted-swap target value.
	ModeAwaitingTarget
	// ModeCollectingEnergy accumulates gesture energy toward a swap.
	ModeCollectingEnergy
	// ModeAwaitingAck waits for the server's swap result.
	ModeAwaitingAck
	// ModeFolded is terminal for the round.
	ModeFolded
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModeAwaitingTarget:
		return "AwaitingTarget"
	case ModeCollectingEnergy:
		return "CollectingEnergy"
	case ModeAwaitingAck:
		return "AwaitingAck"
	case ModeFolded:
		return "Folded"
	default:
		return "Unknown"
	}
}

// RecognizerStatus tracks the speech recognizer lifecycle. Start is
// only legal from RecognizerIdle; stopping is asynchronous, so a
// distinct state guards against restarting mid-teardown.
type RecognizerStatus int

const (
	RecognizerIdle RecognizerStatus = iota
	RecognizerListening
	RecognizerStopping
)

func (s RecognizerStatus) String() string {
	switch s {
	case RecognizerIdle:
		return "Idle"
	case RecognizerListening:
		return "Listening"
	case RecognizerStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}
