package subscription

import (
	"context"
	"errors"
	"testing"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"
	"tipster-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireEndedSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ended := f.put(subscription.StatusActive, day(-40), day(-10))
	running := f.put(subscription.StatusActive, day(-5), day(25))
	pending := f.put(subscription.StatusPending, nil, nil)

	res, err := f.svc.ExpireEndedSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 0, res.Failed)

	assert.Equal(t, subscription.StatusExpired, f.status(t, ended.ID))
	assert.Equal(t, subscription.StatusActive, f.status(t, running.ID))
	assert.Equal(t, subscription.StatusPending, f.status(t, pending.ID))

	entries := f.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, auth.SystemActorID, entries[0].ActorID)
	assert.Equal(t, audit.ActionExpired, entries[0].Action)
	assert.Equal(t, sweepNote, entries[0].Notes)

	again, err := f.svc.ExpireEndedSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Expired)
	assert.Len(t, f.audit.Entries(), 1)
}

func TestExpireEndedSweepContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken := f.put(subscription.StatusActive, day(-40), day(-10))
	ok := f.put(subscription.StatusActive, day(-30), day(-1))
	f.store.Fail("ApplyStatusChange", broken.ID, errors.New("timeout"))

	res, err := f.svc.ExpireEndedSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, subscription.StatusActive, f.status(t, broken.ID))
	assert.Equal(t, subscription.StatusExpired, f.status(t, ok.ID))

	f.store.Clear()
	res, err = f.svc.ExpireEndedSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, subscription.StatusExpired, f.status(t, broken.ID))
}

func TestExpireEndedSweepSkipsRowsChangedMeanwhile(t *testing.T) {
	f := newFixture(t)
	sub := f.put(subscription.StatusActive, day(-40), day(-10))
	f.store.Fail("ApplyStatusChange", sub.ID, xerrors.InvalidTransition("subscription %d is expired, expected active", sub.ID))

	res, err := f.svc.ExpireEndedSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Expired)
	assert.Zero(t, res.Failed)
}

func TestExpireEndedSweepListFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("ListActiveEndedBefore", memory.Any, errors.New("down"))

	_, err := f.svc.ExpireEndedSweep(context.Background())
	assert.Equal(t, xerrors.KindInternal, xerrors.KindOf(err))
}
