// internal/service/subscription/entitlement.go
package subscription

import (
	"context"

	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// ActiveTier returns the highest tier among the user's active subscriptions
// whose window contains now, or "" when the user holds none.
func (s *LifecycleService) ActiveTier(ctx context.Context, userID int64) (subscription.Tier, error) {
	active, err := s.store.ListActiveByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list active subscriptions", zap.Int64("user_id", userID), zap.Error(err))
		return "", xerrors.Internal("failed to load subscriptions", err)
	}

	now := s.now().UTC()
	var best subscription.Tier
	for _, sub := range active {
		start, end, ok := sub.Window()
		if !ok || now.Before(start) || now.After(end) {
			continue
		}
		pkg, err := s.packages.FindByID(ctx, sub.PackageID)
		if err != nil {
			return "", xerrors.Internal("failed to load package", err)
		}
		if pkg.Tier.Rank() > best.Rank() {
			best = pkg.Tier
		}
	}
	return best, nil
}
