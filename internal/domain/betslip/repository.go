package betslip

import (
	"context"

	"tipster-service/internal/domain/subscription"
)

// Repository is the storage collaborator for betslips and their legs.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Betslip, error)
	// LockByID reads a slip and holds it against concurrent writers until the
	// surrounding transaction ends.
	LockByID(ctx context.Context, id int64) (*Betslip, error)
	Create(ctx context.Context, b *Betslip) error
	// UpdateShape changes the slip type and cached combined odds.
	UpdateShape(ctx context.Context, id int64, t Type, combinedOdds *float64) error
	// Settle returns xerrors.ErrInvalidTransition when the slip is no longer pending.
	Settle(ctx context.Context, s Settlement) error

	ListLegs(ctx context.Context, betslipID int64) ([]Leg, error)
	FindLegByID(ctx context.Context, id int64) (*Leg, error)
	MaxLegOrder(ctx context.Context, betslipID int64) (int, error)
	// InsertLeg returns a conflict error when (betslip_id, leg_order) is taken.
	InsertLeg(ctx context.Context, leg *Leg) error
	SettleLeg(ctx context.Context, s LegSettlement) error
}

type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Entitlements reports the highest tier a user currently holds, "" for none.
type Entitlements interface {
	ActiveTier(ctx context.Context, userID int64) (subscription.Tier, error)
}
