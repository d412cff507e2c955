// internal/service/betslip/bulk.go
package betslip

import (
	"context"

	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/betslip"
	xerrors "tipster-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// BulkSettle settles each single betslip in the given order with the same
// outcome. One failure never stops the rest; every failure is reported with
// its error code.
func (s *SettlementService) BulkSettle(ctx context.Context, ids []int64, outcome betslip.Outcome, note string, actor auth.Actor) (*betslip.BulkResult, error) {
	if !outcome.IsFinal() {
		return nil, xerrors.Validation("outcome must be one of won, lost, void")
	}

	result := &betslip.BulkResult{Errors: []betslip.BulkItemError{}}
	for _, id := range ids {
		if _, err := s.settle(ctx, id, outcome, note, actor); err != nil {
			code := string(xerrors.KindOf(err))
			result.FailedCount++
			result.Errors = append(result.Errors, betslip.BulkItemError{
				ID:    id,
				Code:  code,
				Error: xerrors.PublicMessage(err),
			})
			s.metrics.BulkItem(code)
			continue
		}
		result.SuccessCount++
		s.metrics.BulkItem("ok")
	}

	s.logger.Info("bulk settlement finished",
		zap.Int("requested", len(ids)),
		zap.Int("settled", result.SuccessCount),
		zap.Int("failed", result.FailedCount),
		zap.Int64("actor_id", actor.ID),
	)

	return result, nil
}
