package domain

// SessionState models the per-connection lifecycle.
// A session starts without a name and becomes Active once a
// non-empty name is supplied. There is no transition back.
type SessionState int

const (
	AwaitingName SessionState = iota
	Active
)

func (s SessionState) String() string {
	switch s {
	case AwaitingName:
		return "AWAITING_NAME"
	case Active:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}
