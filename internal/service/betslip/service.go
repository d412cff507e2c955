// internal/service/betslip/service.go
package betslip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/betslip"
	"tipster-service/internal/domain/notification"
	"tipster-service/internal/metrics"
	xerrors "tipster-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// SettlementService creates betslips, manages their legs and settles them.
type SettlementService struct {
	store    betslip.Store
	access   betslip.Entitlements
	audit    audit.Logger
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewSettlementService(
	store betslip.Store,
	access betslip.Entitlements,
	auditLog audit.Logger,
	notifier notification.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		store:    store,
		access:   access,
		audit:    auditLog,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SettlementService) load(ctx context.Context, id int64) (*betslip.Betslip, error) {
	b, err := s.store.FindByID(ctx, id)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.NotFound("betslip %d not found", id)
	}
	if err != nil {
		s.logger.Error("failed to load betslip", zap.Int64("betslip_id", id), zap.Error(err))
		return nil, xerrors.Internal("failed to load betslip", err)
	}
	return b, nil
}

func (s *SettlementService) writeError(op string, id int64, err error) error {
	var appErr *xerrors.Error
	if errors.As(err, &appErr) && appErr.Kind != xerrors.KindInternal {
		return err
	}
	if errors.Is(err, xerrors.ErrNotFound) {
		return xerrors.NotFound("betslip %d not found", id)
	}
	s.logger.Error(op+" failed", zap.Int64("betslip_id", id), zap.Error(err))
	return xerrors.Internal(op+" did not complete", err)
}

func (s *SettlementService) record(ctx context.Context, id, actorID int64, action audit.Action, note string) {
	s.audit.Append(ctx, audit.NewEntry(audit.EntityBetslip, id, actorID, action, note))
}

func (s *SettlementService) announce(ctx context.Context, b *betslip.Betslip, summary betslip.SettlementSummary) {
	s.notifier.Notify(ctx, notification.Notification{
		Type:      notification.TypeBetslipSettled,
		Broadcast: true,
		EntityID:  b.ID,
		Title:     "Betslip settled",
		Message:   fmt.Sprintf("%s settled as %s", b.Title, summary.Outcome),
		Metadata: map[string]interface{}{
			"outcome":       summary.Outcome,
			"profit_units":  summary.ProfitUnits,
			"required_tier": b.RequiredTier,
		},
	})
}
