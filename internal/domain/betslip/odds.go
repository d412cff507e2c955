package betslip

// CombinedOdds multiplies decimal odds together, starting from 1.0.
func CombinedOdds(odds []float64) float64 {
	product := 1.0
	for _, o := range odds {
		product *= o
	}
	return product
}

func legOdds(legs []Leg, voidAsEven bool) []float64 {
	odds := make([]float64, 0, len(legs))
	for _, leg := range legs {
		if voidAsEven && leg.Status == OutcomeVoid {
			odds = append(odds, 1.0)
			continue
		}
		odds = append(odds, leg.OddsDecimal)
	}
	return odds
}

// EffectiveOdds is the slip's own odds for single slips and the product of
// every leg for multi slips.
func EffectiveOdds(b *Betslip, legs []Leg) float64 {
	if b.Type == TypeMulti {
		return CombinedOdds(legOdds(legs, false))
	}
	return b.OddsDecimal
}

// SettledOdds is the payout odds of a settled slip. Void legs of a multi slip
// pay at evens and drop out of the product.
func SettledOdds(b *Betslip, legs []Leg) float64 {
	if b.Type == TypeMulti {
		return CombinedOdds(legOdds(legs, true))
	}
	return b.OddsDecimal
}

// ProfitUnits is the profit or loss for a stake at the given odds. It is a
// reporting figure and is never stored.
func ProfitUnits(stakeUnits, effectiveOdds float64, outcome Outcome) float64 {
	switch outcome {
	case OutcomeWon:
		return stakeUnits * (effectiveOdds - 1)
	case OutcomeLost:
		return -stakeUnits
	}
	return 0
}

// AggregateLegs derives a multi slip's outcome from its legs. A single lost
// leg settles the slip as lost; otherwise the slip settles once no leg is
// pending, as void when every leg is void and as won otherwise.
func AggregateLegs(legs []Leg) (Outcome, bool) {
	if len(legs) == 0 {
		return OutcomePending, false
	}

	pending, void := 0, 0
	for _, leg := range legs {
		switch leg.Status {
		case OutcomeLost:
			return OutcomeLost, true
		case OutcomeVoid:
			void++
		case OutcomeWon:
		default:
			pending++
		}
	}

	if pending > 0 {
		return OutcomePending, false
	}
	if void == len(legs) {
		return OutcomeVoid, true
	}
	return OutcomeWon, true
}
