package betslip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinedOdds(t *testing.T) {
	assert.InDelta(t, 5.4, CombinedOdds([]float64{1.5, 2.0, 1.8}), 1e-9)
	assert.Equal(t, 1.0, CombinedOdds(nil))
	assert.Equal(t, 1.0, CombinedOdds([]float64{}))
	assert.InDelta(t, 2.5, CombinedOdds([]float64{2.5}), 1e-9)
}

func TestProfitUnits(t *testing.T) {
	assert.InDelta(t, 15.0, ProfitUnits(10, 2.5, OutcomeWon), 1e-9)
	assert.InDelta(t, -10.0, ProfitUnits(10, 2.5, OutcomeLost), 1e-9)
	assert.Equal(t, 0.0, ProfitUnits(10, 2.5, OutcomeVoid))
	assert.Equal(t, 0.0, ProfitUnits(10, 2.5, OutcomePending))
}

func TestEffectiveOdds(t *testing.T) {
	legs := []Leg{
		{LegOrder: 1, OddsDecimal: 1.5, Status: OutcomeWon},
		{LegOrder: 2, OddsDecimal: 2.0, Status: OutcomeVoid},
		{LegOrder: 3, OddsDecimal: 1.8, Status: OutcomeWon},
	}

	single := &Betslip{Type: TypeSingle, OddsDecimal: 3.1}
	assert.Equal(t, 3.1, EffectiveOdds(single, legs))
	assert.Equal(t, 3.1, SettledOdds(single, legs))

	multi := &Betslip{Type: TypeMulti, OddsDecimal: 9.9}
	assert.InDelta(t, 5.4, EffectiveOdds(multi, legs), 1e-9)
	assert.InDelta(t, 2.7, SettledOdds(multi, legs), 1e-9, "void leg pays at evens")
}

func TestAggregateLegs(t *testing.T) {
	leg := func(status Outcome) Leg { return Leg{OddsDecimal: 2, Status: status} }

	tests := []struct {
		name     string
		legs     []Leg
		want     Outcome
		resolved bool
	}{
		{"no legs", nil, OutcomePending, false},
		{"all pending", []Leg{leg(OutcomePending), leg(OutcomePending)}, OutcomePending, false},
		{"one lost settles early", []Leg{leg(OutcomeLost), leg(OutcomePending)}, OutcomeLost, true},
		{"won and pending", []Leg{leg(OutcomeWon), leg(OutcomePending)}, OutcomePending, false},
		{"all won", []Leg{leg(OutcomeWon), leg(OutcomeWon)}, OutcomeWon, true},
		{"won and void", []Leg{leg(OutcomeWon), leg(OutcomeVoid)}, OutcomeWon, true},
		{"all void", []Leg{leg(OutcomeVoid), leg(OutcomeVoid)}, OutcomeVoid, true},
		{"lost beats void", []Leg{leg(OutcomeVoid), leg(OutcomeLost)}, OutcomeLost, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, resolved := AggregateLegs(tt.legs)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.resolved, resolved)
		})
	}
}

func TestOutcomeIsFinal(t *testing.T) {
	assert.True(t, OutcomeWon.IsFinal())
	assert.True(t, OutcomeVoid.IsFinal())
	assert.False(t, OutcomePending.IsFinal())
	assert.False(t, Outcome("push").IsValid())
}
