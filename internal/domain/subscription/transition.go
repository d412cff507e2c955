package subscription

// allowedTransitions lists every legal edge of the lifecycle. Expired and
// rejected have no outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusRejected},
	StatusActive:  {StatusExpired},
}

// IsValidTransition reports whether a subscription may move from current to
// target. It is total over the status enum and has no side effects.
func IsValidTransition(current, target Status) bool {
	for _, allowed := range allowedTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}
