// internal/domain/betslip/entity.go
package betslip

import (
	"time"

	"tipster-service/internal/domain/subscription"
)

type Type string

const (
	TypeSingle Type = "single"
	TypeMulti  Type = "multi"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
)

// Outcome is used both for a betslip's outcome and a leg's status.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomeVoid    Outcome = "void"
)

// IsFinal reports whether o is a settlement result (won, lost or void).
func (o Outcome) IsFinal() bool {
	return o == OutcomeWon || o == OutcomeLost || o == OutcomeVoid
}

func (o Outcome) IsValid() bool {
	return o == OutcomePending || o.IsFinal()
}

// MinLegOdds is the exclusive lower bound for a leg's decimal odds.
const MinLegOdds = 1.01

type Betslip struct {
	ID           int64             `json:"id" db:"id"`
	Type         Type              `json:"type" db:"type"`
	League       string            `json:"league" db:"league"`
	Title        string            `json:"title" db:"title"`
	Selection    string            `json:"selection" db:"selection"`
	OddsDecimal  float64           `json:"odds_decimal" db:"odds_decimal"`
	CombinedOdds *float64          `json:"combined_odds,omitempty" db:"combined_odds"`
	StakeUnits   float64           `json:"stake_units" db:"stake_units"`
	RequiredTier subscription.Tier `json:"required_tier" db:"required_tier"`
	Tags         []string          `json:"tags" db:"tags"`

	// Settlement
	Status    Status     `json:"status" db:"status"`
	Outcome   Outcome    `json:"outcome" db:"outcome"`
	Notes     string     `json:"notes" db:"notes"`
	SettledAt *time.Time `json:"settled_at,omitempty" db:"settled_at"`
	SettledBy *int64     `json:"settled_by,omitempty" db:"settled_by"`

	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsSettled reports whether any final outcome has been recorded.
func (b *Betslip) IsSettled() bool {
	return b.Status == StatusSettled || b.Outcome != OutcomePending
}

// Leg is one selection of a multi betslip. It only refers back to its parent
// by id.
type Leg struct {
	ID          int64      `json:"id" db:"id"`
	BetslipID   int64      `json:"betslip_id" db:"betslip_id"`
	LegOrder    int        `json:"leg_order" db:"leg_order"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	OddsDecimal float64    `json:"odds_decimal" db:"odds_decimal"`
	Status      Outcome    `json:"status" db:"status"`
	Notes       string     `json:"notes" db:"notes"`
	SettledAt   *time.Time `json:"settled_at,omitempty" db:"settled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Settlement is a compare-and-set write that only applies to a pending slip.
type Settlement struct {
	BetslipID int64
	Outcome   Outcome
	Notes     string
	SettledBy int64
	SettledAt time.Time
}

// LegSettlement only applies to a pending leg.
type LegSettlement struct {
	LegID     int64
	Status    Outcome
	Notes     string
	SettledAt time.Time
}
