package betslip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/betslip"
	"tipster-service/internal/domain/notification"
	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"
	"tipster-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	fixedNow = time.Date(2026, 4, 12, 18, 30, 0, 0, time.UTC)
	tipster  = auth.NewActor(50, auth.RoleAdmin)
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note notification.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type tierTable map[int64]subscription.Tier

func (t tierTable) ActiveTier(_ context.Context, userID int64) (subscription.Tier, error) {
	if tier, ok := t[userID]; ok {
		return tier, nil
	}
	return "", nil
}

type fixture struct {
	svc      *SettlementService
	store    *memory.BetslipStore
	audit    *memory.AuditStore
	notifier *recordingNotifier
	tiers    tierTable
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewBetslipStore(),
		audit:    memory.NewAuditStore(),
		notifier: &recordingNotifier{},
		tiers:    tierTable{},
	}
	f.svc = NewSettlementService(f.store, f.tiers, f.audit, f.notifier, nil, zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) single(odds float64) betslip.Betslip {
	return f.store.Put(betslip.Betslip{
		Type:         betslip.TypeSingle,
		League:       "EPL",
		Title:        "Arsenal vs Spurs",
		Selection:    "Arsenal",
		OddsDecimal:  odds,
		StakeUnits:   2,
		RequiredTier: subscription.TierMonthly,
		Status:       betslip.StatusPending,
		Outcome:      betslip.OutcomePending,
	})
}

func (f *fixture) multi(legOdds ...float64) (betslip.Betslip, []betslip.Leg) {
	b := f.single(1.5)
	combined := betslip.CombinedOdds(legOdds)
	b.Type = betslip.TypeMulti
	b.CombinedOdds = &combined
	b = f.store.Put(b)

	legs := make([]betslip.Leg, 0, len(legOdds))
	for i, o := range legOdds {
		legs = append(legs, f.store.PutLeg(betslip.Leg{
			BetslipID:   b.ID,
			LegOrder:    i + 1,
			Title:       "leg",
			OddsDecimal: o,
			Status:      betslip.OutcomePending,
		}))
	}
	return b, legs
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	req := &betslip.CreateBetslipRequest{
		League:      "Serie A",
		Title:       "Inter vs Milan",
		Selection:   "Over 2.5",
		OddsDecimal: 1.85,
		StakeUnits:  1,
		Tags:        []string{" derby ", ""},
	}

	b, err := f.svc.Create(context.Background(), req, tipster)
	require.NoError(t, err)
	assert.Equal(t, betslip.TypeSingle, b.Type)
	assert.Equal(t, subscription.TierMonthly, b.RequiredTier)
	assert.Equal(t, []string{"derby"}, b.Tags)
	assert.Equal(t, betslip.OutcomePending, b.Outcome)
	require.Len(t, f.audit.Entries(), 1)
}

func TestCreateValidatesOdds(t *testing.T) {
	f := newFixture(t)
	req := &betslip.CreateBetslipRequest{League: "EPL", Title: "t", Selection: "s", OddsDecimal: 1.01, StakeUnits: 1}

	_, err := f.svc.Create(context.Background(), req, tipster)
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	b, _ := f.multi(1.5, 2.0)

	details, err := f.svc.Get(context.Background(), b.ID, tipster)
	require.NoError(t, err)
	require.Len(t, details.Legs, 2)
	assert.Equal(t, 1, details.Legs[0].LegOrder)
	assert.InDelta(t, 3.0, details.EffectiveOdds, 1e-9)

	_, err = f.svc.Get(context.Background(), 404, tipster)
	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(err))
}

func TestGetGatesOnSubscriptionTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	premium := f.store.Put(betslip.Betslip{
		Type: betslip.TypeSingle, League: "UCL", Title: "Final", Selection: "Over 2.5",
		OddsDecimal: 1.9, StakeUnits: 3, RequiredTier: subscription.TierHalfSeason,
		Status: betslip.StatusPending, Outcome: betslip.OutcomePending,
	})
	f.tiers[7] = subscription.TierMonthly
	f.tiers[8] = subscription.TierFullSeason
	f.tiers[9] = subscription.TierHalfSeason

	tests := []struct {
		name   string
		actor  auth.Actor
		wantOK bool
	}{
		{"no subscription", auth.NewActor(6, auth.RoleUser), false},
		{"lower tier", auth.NewActor(7, auth.RoleUser), false},
		{"higher tier", auth.NewActor(8, auth.RoleUser), true},
		{"same tier", auth.NewActor(9, auth.RoleUser), true},
		{"admin without subscription", tipster, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, err := f.svc.Get(ctx, premium.ID, tt.actor)
			if !tt.wantOK {
				assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, premium.ID, details.Betslip.ID)
		})
	}
}

func TestSettleSingle(t *testing.T) {
	tests := []struct {
		outcome betslip.Outcome
		profit  float64
	}{
		{betslip.OutcomeWon, 2.5},
		{betslip.OutcomeLost, -2},
		{betslip.OutcomeVoid, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			f := newFixture(t)
			b := f.single(2.25)

			res, err := f.svc.SettleSingle(context.Background(), b.ID, tt.outcome, "FT 2-1", tipster)
			require.NoError(t, err)
			assert.Equal(t, betslip.StatusSettled, res.Betslip.Status)
			assert.Equal(t, tt.outcome, res.Summary.Outcome)
			assert.InDelta(t, tt.profit, res.Summary.ProfitUnits, 1e-9)
			assert.Equal(t, tipster.ID, res.Summary.SettledBy)
			assert.Equal(t, fixedNow, res.Summary.SettledAt)

			stored, err := f.store.FindByID(context.Background(), b.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, stored.Outcome)
			assert.Equal(t, "FT 2-1", stored.Notes)
			require.NotNil(t, stored.SettledBy)
			assert.Equal(t, tipster.ID, *stored.SettledBy)

			entries := f.audit.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, audit.ActionSettled, entries[0].Action)
			assert.Equal(t, 1, f.notifier.count())
		})
	}
}

func TestSettleSingleRejectsSecondSettlement(t *testing.T) {
	f := newFixture(t)
	b := f.single(2.0)
	ctx := context.Background()

	_, err := f.svc.SettleSingle(ctx, b.ID, betslip.OutcomeWon, "", tipster)
	require.NoError(t, err)

	for _, outcome := range []betslip.Outcome{betslip.OutcomeWon, betslip.OutcomeLost} {
		_, err = f.svc.SettleSingle(ctx, b.ID, outcome, "", tipster)
		assert.Equal(t, xerrors.KindInvalidTransition, xerrors.KindOf(err))
	}

	stored, err := f.store.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, betslip.OutcomeWon, stored.Outcome)
}

func TestSettleSingleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.single(2.0)
	_, err := f.svc.SettleSingle(ctx, b.ID, betslip.OutcomePending, "", tipster)
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	_, err = f.svc.SettleSingle(ctx, b.ID, "half_won", "", tipster)
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	m, _ := f.multi(1.5, 1.5)
	_, err = f.svc.SettleSingle(ctx, m.ID, betslip.OutcomeWon, "", tipster)
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))
	assert.Contains(t, xerrors.PublicMessage(err), "settle its legs instead")

	_, err = f.svc.SettleSingle(ctx, 999, betslip.OutcomeWon, "", tipster)
	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(err))
}

func TestSettleSingleStorageFailure(t *testing.T) {
	f := newFixture(t)
	b := f.single(2.0)
	f.store.Fail("Settle", b.ID, errors.New("connection refused"))

	_, err := f.svc.SettleSingle(context.Background(), b.ID, betslip.OutcomeWon, "", tipster)
	assert.Equal(t, xerrors.KindInternal, xerrors.KindOf(err))
	assert.NotContains(t, xerrors.PublicMessage(err), "refused")
	assert.Empty(t, f.audit.Entries())
}

// legRaceStore runs beforeTx once, just ahead of the next transaction.
type legRaceStore struct {
	betslip.Store
	beforeTx func()
}

func (s *legRaceStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo betslip.Repository) error) error {
	if hook := s.beforeTx; hook != nil {
		s.beforeTx = nil
		hook()
	}
	return s.Store.WithinTx(ctx, fn)
}

func TestSettleSingleLosesToConcurrentLegs(t *testing.T) {
	f := newFixture(t)
	b := f.single(2.0)
	ctx := context.Background()

	race := &legRaceStore{Store: f.store}
	f.svc.store = race
	race.beforeTx = func() {
		for _, title := range []string{"Arsenal win", "Chelsea win"} {
			_, err := f.svc.AddLeg(ctx, b.ID, &betslip.AddLegRequest{Title: title, OddsDecimal: 1.8}, tipster)
			require.NoError(t, err)
		}
	}

	_, err := f.svc.SettleSingle(ctx, b.ID, betslip.OutcomeWon, "", tipster)
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	stored, err := f.store.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, betslip.TypeMulti, stored.Type)
	assert.Equal(t, betslip.StatusPending, stored.Status)
	assert.Equal(t, betslip.OutcomePending, stored.Outcome)
}
