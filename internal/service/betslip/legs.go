// internal/service/betslip/legs.go
package betslip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/betslip"
	xerrors "tipster-service/internal/pkg/errors"
	"tipster-service/internal/pkg/notes"
	"tipster-service/internal/pkg/validation"

	"go.uber.org/zap"
)

// AddLeg appends a leg to a pending betslip. The order is always assigned
// here; the second leg turns a single slip into a multi.
func (s *SettlementService) AddLeg(ctx context.Context, betslipID int64, req *betslip.AddLegRequest, actor auth.Actor) (*betslip.Leg, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var (
		leg       *betslip.Leg
		converted bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo betslip.Repository) error {
		parent, err := repo.LockByID(ctx, betslipID)
		if err != nil {
			return err
		}
		if parent.IsSettled() {
			return xerrors.InvalidTransition("betslip %d is settled, legs can no longer be added", betslipID)
		}

		last, err := repo.MaxLegOrder(ctx, betslipID)
		if err != nil {
			return err
		}

		leg = &betslip.Leg{
			BetslipID:   betslipID,
			LegOrder:    last + 1,
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			OddsDecimal: req.OddsDecimal,
			Status:      betslip.OutcomePending,
			Notes:       strings.TrimSpace(req.Notes),
		}
		if err := repo.InsertLeg(ctx, leg); err != nil {
			return err
		}

		legs, err := repo.ListLegs(ctx, betslipID)
		if err != nil {
			return err
		}

		shape := parent.Type
		if shape == betslip.TypeSingle && leg.LegOrder >= 2 {
			shape = betslip.TypeMulti
			converted = true
		}
		combined := betslip.CombinedOdds(legOdds(legs))
		return repo.UpdateShape(ctx, betslipID, shape, &combined)
	})
	if err != nil {
		return nil, s.writeError("add leg", betslipID, err)
	}

	s.record(ctx, betslipID, actor.ID, audit.ActionLegAdded,
		fmt.Sprintf("Leg #%d: %s @ %.2f", leg.LegOrder, leg.Title, leg.OddsDecimal))
	if converted {
		s.logger.Info("betslip converted to multi", zap.Int64("betslip_id", betslipID))
	}

	return leg, nil
}

// SettleLeg records a leg result and, for multi slips, settles the parent as
// soon as its legs decide it. Both writes share one transaction.
func (s *SettlementService) SettleLeg(ctx context.Context, legID int64, status betslip.Outcome, note string, actor auth.Actor) (*betslip.LegSettlementResult, error) {
	if !status.IsFinal() {
		return nil, xerrors.Validation("leg status must be one of won, lost, void")
	}

	leg, err := s.store.FindLegByID(ctx, legID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.NotFound("leg %d not found", legID)
	}
	if err != nil {
		return nil, xerrors.Internal("failed to load leg", err)
	}
	if leg.Status != betslip.OutcomePending {
		return nil, xerrors.InvalidTransition("leg %d is already settled as %s", legID, leg.Status)
	}

	now := s.now().UTC()
	legSettlement := betslip.LegSettlement{
		LegID:     legID,
		Status:    status,
		Notes:     notes.Append(leg.Notes, note),
		SettledAt: now,
	}

	var (
		parent     *betslip.Betslip
		legs       []betslip.Leg
		settlement *betslip.Settlement
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repo betslip.Repository) error {
		var err error
		parent, err = repo.LockByID(ctx, leg.BetslipID)
		if err != nil {
			return err
		}
		if err := repo.SettleLeg(ctx, legSettlement); err != nil {
			return err
		}

		// A lost leg may already have decided the slip.
		if parent.Type != betslip.TypeMulti || parent.IsSettled() {
			return nil
		}

		legs, err = repo.ListLegs(ctx, parent.ID)
		if err != nil {
			return err
		}
		outcome, resolved := betslip.AggregateLegs(legs)
		if !resolved {
			return nil
		}

		settlement = &betslip.Settlement{
			BetslipID: parent.ID,
			Outcome:   outcome,
			Notes:     notes.Append(parent.Notes, fmt.Sprintf("Settled from legs: %s", outcome)),
			SettledBy: actor.ID,
			SettledAt: now,
		}
		return repo.Settle(ctx, *settlement)
	})
	if err != nil {
		return nil, s.writeError("leg settlement", leg.BetslipID, err)
	}

	leg.Status = legSettlement.Status
	leg.Notes = legSettlement.Notes
	leg.SettledAt = &now
	leg.UpdatedAt = now

	s.record(ctx, leg.BetslipID, actor.ID, audit.ActionLegSettled,
		fmt.Sprintf("Leg #%d settled as %s", leg.LegOrder, status))
	s.metrics.Settlement("leg", string(status))

	result := &betslip.LegSettlementResult{Leg: leg}
	if settlement != nil {
		applySettlement(parent, *settlement)
		profit := betslip.ProfitUnits(parent.StakeUnits, betslip.SettledOdds(parent, legs), settlement.Outcome)
		result.Parent = s.settled(ctx, parent, profit, actor)
	}

	return result, nil
}

func legOdds(legs []betslip.Leg) []float64 {
	odds := make([]float64, 0, len(legs))
	for _, l := range legs {
		odds = append(odds, l.OddsDecimal)
	}
	return odds
}
