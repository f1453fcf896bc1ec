package game

// Result reports what a command did to the session. Rejections are not
// errors: the session is left untouched and nothing is broadcast.
type Result int

const (
	Applied Result = iota
	IgnoredNotYourTurn
	IgnoredNotAuthorized
	IgnoredInvalid
)

// String returns the wire name of the result
func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case IgnoredNotYourTurn:
		return "not_your_turn"
	case IgnoredNotAuthorized:
		return "not_authorized"
	case IgnoredInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// OK reports whether the command changed the session
func (r Result) OK() bool {
	return r == Applied
}
