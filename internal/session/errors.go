package session

import "fmt"

// ErrorKind classifies session failures by how the caller should react.
type ErrorKind int

const (
	// InputRejected means the request was refused locally; the
	// session stays where it was and the player may adjust and retry.
	InputRejected ErrorKind = iota
	// ServerRejected means the server refused an emitted swap; any
	// optimistic bookkeeping has been reverted.
	ServerRejected
	// CapabilityUnavailable means a platform feature (microphone,
	// touch, motion) is missing; the dependent feature degrades but
	// the session keeps running.
	CapabilityUnavailable
	// RecognitionTransient means the recognizer failed mid-listen;
	// boost state is untouched and the player may retry.
	RecognitionTransient
)

func (k ErrorKind) String() string {
	switch k {
	case InputRejected:
		return "InputRejected"
	case ServerRejected:
		return "ServerRejected"
	case CapabilityUnavailable:
		return "CapabilityUnavailable"
	case RecognitionTransient:
		return "RecognitionTransient"
	default:
		return "Unknown"
	}
}

// Error is a classified, recoverable session failure. None of these
// terminate the session.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// KindOf extracts the ErrorKind from err, with ok false when err is
// not a session error.
func KindOf(err error) (ErrorKind, bool) {
	se, ok := err.(*Error)
	if !ok {
		return 0, false
	}
	return se.Kind, true
}

func rejectf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
