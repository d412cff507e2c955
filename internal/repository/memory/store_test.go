package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tipster-service/internal/domain/betslip"
	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionStoreRollsBackFailedTx(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()
	sub := store.Put(subscription.Subscription{UserID: 1, Status: subscription.StatusPending, Reference: "A"})

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repo subscription.Repository) error {
		require.NoError(t, repo.ApplyStatusChange(ctx, subscription.StatusChange{
			ID: sub.ID, From: subscription.StatusPending, To: subscription.StatusRejected, At: time.Now(),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPending, got.Status)
}

func TestSubscriptionStoreCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()
	sub := store.Put(subscription.Subscription{UserID: 1, Status: subscription.StatusRejected, Reference: "A"})

	err := store.ApplyStatusChange(ctx, subscription.StatusChange{
		ID: sub.ID, From: subscription.StatusPending, To: subscription.StatusActive,
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)

	err = store.ApplyStatusChange(ctx, subscription.StatusChange{ID: 99, From: subscription.StatusPending})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestSubscriptionStoreFaults(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()
	sub := store.Put(subscription.Subscription{UserID: 1, Status: subscription.StatusPending})

	store.Fail("FindByID", sub.ID, errors.New("disk on fire"))
	_, err := store.FindByID(ctx, sub.ID)
	assert.EqualError(t, err, "disk on fire")

	store.Clear()
	_, err = store.FindByID(ctx, sub.ID)
	assert.NoError(t, err)
}

func TestBetslipStoreRejectsDuplicateLegOrder(t *testing.T) {
	ctx := context.Background()
	store := NewBetslipStore()
	b := store.Put(betslip.Betslip{Type: betslip.TypeSingle, Status: betslip.StatusPending, Outcome: betslip.OutcomePending})

	require.NoError(t, store.InsertLeg(ctx, &betslip.Leg{BetslipID: b.ID, LegOrder: 1, OddsDecimal: 1.5}))
	err := store.InsertLeg(ctx, &betslip.Leg{BetslipID: b.ID, LegOrder: 1, OddsDecimal: 2.0})
	assert.Equal(t, xerrors.KindConflict, xerrors.KindOf(err))

	max, err := store.MaxLegOrder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, max)
}

func TestBetslipStoreSettleOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewBetslipStore()
	b := store.Put(betslip.Betslip{Type: betslip.TypeSingle, Status: betslip.StatusPending, Outcome: betslip.OutcomePending})

	settle := betslip.Settlement{BetslipID: b.ID, Outcome: betslip.OutcomeWon, SettledBy: 7, SettledAt: time.Now()}
	require.NoError(t, store.Settle(ctx, settle))

	err := store.Settle(ctx, settle)
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)

	got, err := store.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, betslip.StatusSettled, got.Status)
	require.NotNil(t, got.SettledBy)
	assert.Equal(t, int64(7), *got.SettledBy)
}
