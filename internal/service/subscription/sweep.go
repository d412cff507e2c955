// internal/service/subscription/sweep.go
package subscription

import (
	"context"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/notification"
	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"

	"go.uber.org/zap"
)

const sweepNote = "Automatically expired: end date passed"

// ExpireEndedSweep expires every active subscription whose end date has
// passed. Rows are processed independently; a failed row is logged and
// counted and the rest continue. Running it again without new lapses expires
// nothing.
func (s *LifecycleService) ExpireEndedSweep(ctx context.Context) (*subscription.SweepResult, error) {
	now := s.now().UTC()
	system := auth.SystemActor()

	ended, err := s.store.ListActiveEndedBefore(ctx, now)
	if err != nil {
		s.logger.Error("sweep: failed to list ended subscriptions", zap.Error(err))
		return nil, xerrors.Internal("failed to list ended subscriptions", err)
	}

	result := &subscription.SweepResult{}
	for _, sub := range ended {
		if ctx.Err() != nil {
			break
		}
		if !subscription.IsValidTransition(sub.Status, subscription.StatusExpired) {
			continue
		}

		err := s.store.ApplyStatusChange(ctx, subscription.StatusChange{
			ID:        sub.ID,
			From:      subscription.StatusActive,
			To:        subscription.StatusExpired,
			UpdatedBy: system.ID,
			At:        now,
		})
		switch {
		case err == nil:
		case xerrors.KindOf(err) == xerrors.KindInvalidTransition || xerrors.KindOf(err) == xerrors.KindNotFound:
			// Changed by someone else since the listing.
			s.logger.Debug("sweep: subscription no longer active", zap.Int64("subscription_id", sub.ID))
			continue
		default:
			result.Failed++
			s.logger.Warn("sweep: failed to expire subscription",
				zap.Int64("subscription_id", sub.ID),
				zap.Error(err),
			)
			continue
		}

		result.Expired++
		s.record(ctx, sub.ID, system.ID, audit.ActionExpired, sweepNote)
		s.notifier.Notify(ctx, notification.Notification{
			Type:       notification.TypeSubscriptionExpired,
			IdentityID: sub.UserID,
			EntityID:   sub.ID,
			Title:      "Subscription expired",
			Message:    "Your subscription has reached its end date",
		})
	}

	s.metrics.Sweep(result.Expired, result.Failed)
	if result.Expired > 0 || result.Failed > 0 {
		s.logger.Info("sweep completed",
			zap.Int("expired", result.Expired),
			zap.Int("failed", result.Failed),
		)
	}

	return result, nil
}
