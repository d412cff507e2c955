// internal/service/betslip/settlement.go
package betslip

import (
	"context"
	"fmt"
	"strings"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/betslip"
	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"
	"tipster-service/internal/pkg/notes"
	"tipster-service/internal/pkg/validation"

	"go.uber.org/zap"
)

// Create publishes a new single betslip.
func (s *SettlementService) Create(ctx context.Context, req *betslip.CreateBetslipRequest, actor auth.Actor) (*betslip.Betslip, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	tier := req.RequiredTier
	if tier == "" {
		tier = subscription.TierMonthly
	}
	tags := make([]string, 0, len(req.Tags))
	for _, tag := range req.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	b := &betslip.Betslip{
		Type:         betslip.TypeSingle,
		League:       strings.TrimSpace(req.League),
		Title:        strings.TrimSpace(req.Title),
		Selection:    strings.TrimSpace(req.Selection),
		OddsDecimal:  req.OddsDecimal,
		StakeUnits:   req.StakeUnits,
		RequiredTier: tier,
		Tags:         tags,
		Status:       betslip.StatusPending,
		Outcome:      betslip.OutcomePending,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedBy:    actor.ID,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, s.writeError("create betslip", 0, err)
	}

	s.record(ctx, b.ID, actor.ID, audit.ActionCreated, fmt.Sprintf("%s @ %.2f", b.Selection, b.OddsDecimal))
	return b, nil
}

// Get returns a betslip with its legs in order and its current odds. Callers
// whose subscription tier does not cover the slip see it as missing; admins
// see everything.
func (s *SettlementService) Get(ctx context.Context, id int64, actor auth.Actor) (*betslip.BetslipDetails, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		tier, err := s.access.ActiveTier(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if !tier.Covers(b.RequiredTier) {
			return nil, xerrors.NotFound("betslip %d not found", id)
		}
	}

	legs, err := s.store.ListLegs(ctx, id)
	if err != nil {
		return nil, xerrors.Internal("failed to load legs", err)
	}

	return &betslip.BetslipDetails{
		Betslip:       b,
		Legs:          legs,
		EffectiveOdds: betslip.EffectiveOdds(b, legs),
	}, nil
}

// SettleSingle records the outcome of a single betslip. Multi slips are
// settled through their legs.
func (s *SettlementService) SettleSingle(ctx context.Context, id int64, outcome betslip.Outcome, note string, actor auth.Actor) (*betslip.SettlementResult, error) {
	if !outcome.IsFinal() {
		return nil, xerrors.Validation("outcome must be one of won, lost, void")
	}
	return s.settle(ctx, id, outcome, note, actor)
}

// settle holds the slip row for the whole write so a leg added concurrently
// either lands first and makes it a multi, or waits for the settlement.
func (s *SettlementService) settle(ctx context.Context, id int64, outcome betslip.Outcome, note string, actor auth.Actor) (*betslip.SettlementResult, error) {
	var (
		b          *betslip.Betslip
		settlement betslip.Settlement
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo betslip.Repository) error {
		var err error
		b, err = repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Type == betslip.TypeMulti {
			return xerrors.Validation("betslip %d is a multi, settle its legs instead", id)
		}
		if b.IsSettled() {
			return xerrors.InvalidTransition("betslip %d is already settled as %s", id, b.Outcome)
		}

		settlement = betslip.Settlement{
			BetslipID: id,
			Outcome:   outcome,
			Notes:     notes.Append(b.Notes, note),
			SettledBy: actor.ID,
			SettledAt: s.now().UTC(),
		}
		return repo.Settle(ctx, settlement)
	})
	if err != nil {
		return nil, s.writeError("settlement", id, err)
	}

	applySettlement(b, settlement)
	return s.settled(ctx, b, betslip.ProfitUnits(b.StakeUnits, b.OddsDecimal, outcome), actor), nil
}

// settled publishes a committed slip settlement and builds its result.
func (s *SettlementService) settled(ctx context.Context, b *betslip.Betslip, profit float64, actor auth.Actor) *betslip.SettlementResult {
	summary := betslip.SettlementSummary{
		Outcome:     b.Outcome,
		ProfitUnits: profit,
		SettledBy:   actor.ID,
		SettledAt:   *b.SettledAt,
	}

	s.record(ctx, b.ID, actor.ID, audit.ActionSettled, fmt.Sprintf("Settled as %s (%+.2f units)", b.Outcome, profit))
	s.metrics.Settlement("slip", string(b.Outcome))
	s.announce(ctx, b, summary)

	s.logger.Info("betslip settled",
		zap.Int64("betslip_id", b.ID),
		zap.String("outcome", string(b.Outcome)),
		zap.Float64("profit_units", profit),
		zap.Int64("actor_id", actor.ID),
	)

	return &betslip.SettlementResult{Betslip: b, Summary: summary}
}

func applySettlement(b *betslip.Betslip, st betslip.Settlement) {
	settledAt, settledBy := st.SettledAt, st.SettledBy
	b.Status = betslip.StatusSettled
	b.Outcome = st.Outcome
	b.Notes = st.Notes
	b.SettledAt = &settledAt
	b.SettledBy = &settledBy
	b.UpdatedAt = settledAt
}
