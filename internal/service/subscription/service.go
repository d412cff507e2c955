// internal/service/subscription/service.go
package subscription

import (
	"context"
	"errors"
	"time"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/notification"
	"tipster-service/internal/domain/subscription"
	"tipster-service/internal/metrics"
	xerrors "tipster-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// LifecycleService owns every subscription status change.
type LifecycleService struct {
	store    subscription.Store
	packages subscription.PackageRepository
	resolver *ConflictResolver
	audit    audit.Logger
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewLifecycleService(
	store subscription.Store,
	packages subscription.PackageRepository,
	auditLog audit.Logger,
	notifier notification.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		store:    store,
		packages: packages,
		resolver: NewConflictResolver(),
		audit:    auditLog,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *LifecycleService) load(ctx context.Context, id int64) (*subscription.Subscription, error) {
	sub, err := s.store.FindByID(ctx, id)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.NotFound("subscription %d not found", id)
	}
	if err != nil {
		s.logger.Error("failed to load subscription", zap.Int64("subscription_id", id), zap.Error(err))
		return nil, xerrors.Internal("failed to load subscription", err)
	}
	return sub, nil
}

// writeError keeps classified store errors and reports anything else as an
// incomplete operation.
func (s *LifecycleService) writeError(op string, id int64, err error) error {
	var appErr *xerrors.Error
	if errors.As(err, &appErr) && appErr.Kind != xerrors.KindInternal {
		return err
	}
	if errors.Is(err, xerrors.ErrNotFound) {
		return xerrors.NotFound("subscription %d not found", id)
	}
	s.logger.Error(op+" failed", zap.Int64("subscription_id", id), zap.Error(err))
	return xerrors.Internal(op+" did not complete", err)
}

func (s *LifecycleService) record(ctx context.Context, id int64, actorID int64, action audit.Action, notes string) {
	s.audit.Append(ctx, audit.NewEntry(audit.EntitySubscription, id, actorID, action, notes))
}
