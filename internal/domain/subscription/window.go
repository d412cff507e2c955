package subscription

import "time"

// Overlaps treats both ranges as closed intervals: touching endpoints overlap.
func Overlaps(existingStart, existingEnd, proposedStart, proposedEnd time.Time) bool {
	return !existingStart.After(proposedEnd) && !existingEnd.Before(proposedStart)
}

// OverlapsWindow reports whether sub's assigned window overlaps the proposed
// one. Subscriptions without a window never overlap.
func (s *Subscription) OverlapsWindow(proposedStart, proposedEnd time.Time) bool {
	start, end, ok := s.Window()
	if !ok {
		return false
	}
	return Overlaps(start, end, proposedStart, proposedEnd)
}
