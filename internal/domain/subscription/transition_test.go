package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransition_AllPairs(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusActive}:   true,
		{StatusPending, StatusRejected}: true,
		{StatusActive, StatusExpired}:   true,
	}

	valid := 0
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			got := IsValidTransition(from, to)
			assert.Equal(t, allowed[[2]Status{from, to}], got, "%s -> %s", from, to)
			if got {
				valid++
			}
		}
	}
	assert.Equal(t, 3, valid)
}

func TestIsValidTransition_TerminalStatesHaveNoEdges(t *testing.T) {
	for _, terminal := range []Status{StatusExpired, StatusRejected} {
		assert.True(t, terminal.IsTerminal())
		for _, to := range AllStatuses {
			assert.False(t, IsValidTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestIsValidTransition_UnknownStatus(t *testing.T) {
	assert.False(t, IsValidTransition(Status("cancelled"), StatusActive))
	assert.False(t, IsValidTransition(StatusPending, Status("")))
	assert.False(t, Status("cancelled").IsValid())
}
