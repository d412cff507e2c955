package subscription

import (
	"context"
	"errors"
	"testing"

	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tier, err := f.svc.ActiveTier(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.Tier(""), tier)

	f.put(subscription.StatusActive, day(-5), day(25))
	tier, err = f.svc.ActiveTier(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.TierMonthly, tier)

	// A retired package still entitles its holders.
	f.store.Put(subscription.Subscription{
		Reference: "REF-season", UserID: owner.ID, PackageID: 2,
		Status: subscription.StatusActive, StartAt: day(-1), EndAt: day(200),
	})
	tier, err = f.svc.ActiveTier(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.TierFullSeason, tier)

	tier, err = f.svc.ActiveTier(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.Tier(""), tier)
}

func TestActiveTierIgnoresWindowsOutsideNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.put(subscription.StatusActive, day(3), day(33))
	f.put(subscription.StatusActive, day(-40), day(-10))
	f.put(subscription.StatusPending, nil, nil)

	tier, err := f.svc.ActiveTier(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.Tier(""), tier)
}

func TestActiveTierStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("ListActiveByUser", owner.ID, errors.New("connection reset"))

	_, err := f.svc.ActiveTier(context.Background(), owner.ID)
	assert.Equal(t, xerrors.KindInternal, xerrors.KindOf(err))
}
