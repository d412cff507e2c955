// internal/service/subscription/conflict.go
package subscription

import (
	"context"
	"fmt"
	"time"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"
)

// ConflictResolver detects active subscriptions that overlap a window being
// approved and expires them. It only ever runs inside an approval.
type ConflictResolver struct{}

func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{}
}

// FindConflicts returns the user's active subscriptions whose closed window
// overlaps [start, end], excluding excludeID. It locks the user's rows first,
// so two approvals for one user never both see an empty set.
func (c *ConflictResolver) FindConflicts(ctx context.Context, repo subscription.Repository, userID int64, start, end time.Time, excludeID int64) ([]subscription.Subscription, error) {
	if err := repo.LockUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("lock subscriptions of user %d: %w", userID, err)
	}

	active, err := repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	conflicts := make([]subscription.Subscription, 0, len(active))
	for _, sub := range active {
		if sub.ID == excludeID {
			continue
		}
		if sub.OverlapsWindow(start, end) {
			conflicts = append(conflicts, sub)
		}
	}
	return conflicts, nil
}

// Resolve expires each conflict and returns one audit entry per expiry in the
// same order. Entries are only returned, never appended, so the caller can
// publish them after its transaction commits. A conflict that is no longer
// active by the time it is written (the sweep got there first) is skipped.
func (c *ConflictResolver) Resolve(ctx context.Context, repo subscription.Repository, conflicts []subscription.Subscription, actor auth.Actor, approvedID int64, at time.Time) ([]audit.Entry, error) {
	entries := make([]audit.Entry, 0, len(conflicts))
	note := fmt.Sprintf("Automatically expired: superseded by approval of subscription #%d", approvedID)

	for _, sub := range conflicts {
		if !subscription.IsValidTransition(sub.Status, subscription.StatusExpired) {
			continue
		}

		err := repo.ApplyStatusChange(ctx, subscription.StatusChange{
			ID:        sub.ID,
			From:      subscription.StatusActive,
			To:        subscription.StatusExpired,
			UpdatedBy: actor.ID,
			At:        at,
		})
		switch xerrors.KindOf(err) {
		case "":
		case xerrors.KindInvalidTransition, xerrors.KindNotFound:
			continue
		default:
			return nil, fmt.Errorf("expire conflicting subscription %d: %w", sub.ID, err)
		}
		entries = append(entries, audit.NewEntry(audit.EntitySubscription, sub.ID, actor.ID, audit.ActionExpired, note))
	}

	return entries, nil
}
