// internal/domain/betslip/dto.go
package betslip

import (
	"time"

	"tipster-service/internal/domain/subscription"
)

type CreateBetslipRequest struct {
	League       string            `json:"league" binding:"required,max=120" validate:"required,max=120"`
	Title        string            `json:"title" binding:"required,max=255" validate:"required,max=255"`
	Selection    string            `json:"selection" binding:"required,max=255" validate:"required,max=255"`
	OddsDecimal  float64           `json:"odds_decimal" binding:"required,gt=1.01" validate:"required,gt=1.01"`
	StakeUnits   float64           `json:"stake_units" binding:"required,gt=0" validate:"required,gt=0"`
	RequiredTier subscription.Tier `json:"required_tier" binding:"omitempty,oneof=monthly half_season full_season" validate:"omitempty,oneof=monthly half_season full_season"`
	Tags         []string          `json:"tags" validate:"max=20,dive,max=40"`
	Notes        string            `json:"notes"`
}

// AddLegRequest ignores any client-side ordering; leg_order is assigned by
// the server.
type AddLegRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=2000"`
	OddsDecimal float64 `json:"odds_decimal" validate:"gt=1.01"`
	Notes       string  `json:"notes"`
}

type SettleRequest struct {
	Outcome Outcome `json:"outcome" binding:"required"`
	Notes   string  `json:"notes"`
}

type BulkSettleRequest struct {
	BetslipIDs []int64 `json:"betslip_ids" binding:"required,min=1,max=500"`
	Outcome    Outcome `json:"outcome" binding:"required"`
	Notes      string  `json:"notes"`
}

// SettlementSummary is reported with every settlement; ProfitUnits is
// computed for reporting only.
type SettlementSummary struct {
	Outcome     Outcome   `json:"outcome"`
	ProfitUnits float64   `json:"profit_units"`
	SettledBy   int64     `json:"settled_by"`
	SettledAt   time.Time `json:"settled_at"`
}

type SettlementResult struct {
	Betslip *Betslip          `json:"betslip"`
	Summary SettlementSummary `json:"summary"`
}

type LegSettlementResult struct {
	Leg *Leg `json:"leg"`
	// Parent is set only when this leg resolved the whole slip.
	Parent *SettlementResult `json:"parent,omitempty"`
}

type BetslipDetails struct {
	Betslip       *Betslip `json:"betslip"`
	Legs          []Leg    `json:"legs"`
	EffectiveOdds float64  `json:"effective_odds"`
}

type BulkItemError struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type BulkResult struct {
	SuccessCount int             `json:"success_count"`
	FailedCount  int             `json:"failed_count"`
	Errors       []BulkItemError `json:"errors"`
}
