// internal/service/subscription/lifecycle.go
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tipster-service/internal/domain/audit"
	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/notification"
	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"
	"tipster-service/internal/pkg/notes"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	minRejectReasonLen = 5
	defaultExpireNote  = "Manually expired by admin"
)

// ListPackages returns the packages a user can subscribe to.
func (s *LifecycleService) ListPackages(ctx context.Context) ([]subscription.Package, error) {
	pkgs, err := s.packages.ListActive(ctx)
	if err != nil {
		return nil, xerrors.Internal("failed to list packages", err)
	}
	return pkgs, nil
}

// Create opens a pending subscription for userID on an active package.
func (s *LifecycleService) Create(ctx context.Context, userID int64, req *subscription.CreateSubscriptionRequest, actor auth.Actor) (*subscription.Subscription, error) {
	pkg, err := s.packages.FindByID(ctx, req.PackageID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.NotFound("package %d not found", req.PackageID)
	}
	if err != nil {
		return nil, xerrors.Internal("failed to load package", err)
	}
	if !pkg.Active {
		return nil, xerrors.Validation("package %d is not available", pkg.ID)
	}

	sub := &subscription.Subscription{
		Reference: ulid.Make().String(),
		UserID:    userID,
		PackageID: pkg.ID,
		Status:    subscription.StatusPending,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedBy: actor.ID,
		UpdatedBy: actor.ID,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, s.writeError("create subscription", 0, err)
	}

	s.record(ctx, sub.ID, actor.ID, audit.ActionCreated, fmt.Sprintf("Requested package %s (%s)", pkg.Name, pkg.Tier))
	s.notifier.Notify(ctx, notification.Notification{
		Type:       notification.TypeSubscriptionCreated,
		IdentityID: userID,
		Admins:     true,
		EntityID:   sub.ID,
		Title:      "Subscription requested",
		Message:    fmt.Sprintf("Subscription %s for %s is awaiting payment review", sub.Reference, pkg.Name),
	})

	s.logger.Info("subscription created",
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("user_id", userID),
		zap.Int64("package_id", pkg.ID),
	)

	return sub, nil
}

// Get returns a subscription and its receipts. Non-admins only see their own.
func (s *LifecycleService) Get(ctx context.Context, id int64, actor auth.Actor) (*subscription.SubscriptionDetails, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && sub.UserID != actor.ID {
		return nil, xerrors.NotFound("subscription %d not found", id)
	}

	receipts, err := s.store.ListReceipts(ctx, id)
	if err != nil {
		return nil, xerrors.Internal("failed to load receipts", err)
	}

	return &subscription.SubscriptionDetails{Subscription: sub, Receipts: receipts}, nil
}

// SubmitPayment attaches a payment receipt to a pending subscription.
func (s *LifecycleService) SubmitPayment(ctx context.Context, id int64, req *subscription.SubmitPaymentRequest, actor auth.Actor) (*subscription.PaymentReceipt, error) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	reference := strings.ToUpper(strings.TrimSpace(req.Reference))
	switch {
	case method == "":
		return nil, xerrors.Validation("payment method is required")
	case reference == "":
		return nil, xerrors.Validation("payment reference is required")
	case req.AmountCents <= 0:
		return nil, xerrors.Validation("amount must be positive")
	}

	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && sub.UserID != actor.ID {
		return nil, xerrors.NotFound("subscription %d not found", id)
	}
	if sub.Status != subscription.StatusPending {
		return nil, xerrors.InvalidTransition("payments can only be submitted for pending subscriptions, subscription %d is %s", id, sub.Status)
	}

	receipt := &subscription.PaymentReceipt{
		SubscriptionID: id,
		PaymentMethod:  method,
		Reference:      reference,
		AmountCents:    req.AmountCents,
		ReceiptURL:     strings.TrimSpace(req.ReceiptURL),
		SubmittedBy:    actor.ID,
	}
	if err := s.store.CreateReceipt(ctx, receipt); err != nil {
		return nil, s.writeError("submit payment", id, err)
	}

	s.record(ctx, id, actor.ID, audit.ActionSubmittedPayment,
		fmt.Sprintf("%s %s (%d)", method, reference, req.AmountCents))
	s.notifier.Notify(ctx, notification.Notification{
		Type:     notification.TypePaymentSubmitted,
		Admins:   true,
		EntityID: id,
		Title:    "Payment submitted",
		Message:  fmt.Sprintf("Subscription %s has a %s payment %s to review", sub.Reference, method, reference),
	})

	return receipt, nil
}

// Approve activates a pending subscription. Overlapping active subscriptions
// of the same user are expired and the activation is written last, all in one
// transaction. With no window given, the package duration from now is used.
func (s *LifecycleService) Approve(ctx context.Context, id int64, startAt, endAt time.Time, actor auth.Actor) (*subscription.ActionResult, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !subscription.IsValidTransition(sub.Status, subscription.StatusActive) {
		return nil, xerrors.InvalidTransition("cannot transition subscription %d from %s to %s", id, sub.Status, subscription.StatusActive)
	}

	now := s.now().UTC()
	switch {
	case startAt.IsZero() && endAt.IsZero():
		pkg, err := s.packages.FindByID(ctx, sub.PackageID)
		if err != nil {
			return nil, xerrors.Internal("failed to load package", err)
		}
		startAt, endAt = pkg.DefaultWindow(now)
	case startAt.IsZero() || endAt.IsZero():
		return nil, xerrors.Validation("start_at and end_at must be given together")
	}
	if !endAt.After(startAt) {
		return nil, xerrors.Validation("end_at must be after start_at")
	}

	var (
		expired []audit.Entry
		raced   bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repo subscription.Repository) error {
		conflicts, err := s.resolver.FindConflicts(ctx, repo, sub.UserID, startAt, endAt, sub.ID)
		if err != nil {
			return err
		}

		expired, err = s.resolver.Resolve(ctx, repo, conflicts, actor, sub.ID, now)
		if err != nil {
			return err
		}

		err = repo.ApplyStatusChange(ctx, subscription.StatusChange{
			ID:        sub.ID,
			From:      subscription.StatusPending,
			To:        subscription.StatusActive,
			StartAt:   &startAt,
			EndAt:     &endAt,
			UpdatedBy: actor.ID,
			At:        now,
		})
		if xerrors.KindOf(err) == xerrors.KindInvalidTransition {
			raced = true
		}
		return err
	})
	if err != nil {
		if raced {
			return nil, xerrors.InvalidTransition("subscription %d is no longer pending", id)
		}
		s.logger.Error("approval rolled back",
			zap.Int64("subscription_id", id),
			zap.Int64("actor_id", actor.ID),
			zap.Error(err),
		)
		return nil, xerrors.Internal("approval did not complete", err)
	}

	expiredIDs := make([]int64, 0, len(expired))
	for _, e := range expired {
		s.audit.Append(ctx, e)
		s.metrics.Transition(string(subscription.StatusActive), string(subscription.StatusExpired))
		expiredIDs = append(expiredIDs, e.EntityID)
	}
	s.metrics.ConflictsExpired(len(expired))

	approvedNote := fmt.Sprintf("Approved for %s to %s", startAt.Format(time.RFC3339), endAt.Format(time.RFC3339))
	s.record(ctx, id, actor.ID, audit.ActionApproved, approvedNote)
	s.metrics.Transition(string(subscription.StatusPending), string(subscription.StatusActive))

	sub.Status = subscription.StatusActive
	sub.StartAt, sub.EndAt = &startAt, &endAt
	sub.UpdatedBy, sub.UpdatedAt = actor.ID, now

	s.notifier.Notify(ctx, notification.Notification{
		Type:       notification.TypeSubscriptionApproved,
		IdentityID: sub.UserID,
		EntityID:   id,
		Title:      "Subscription approved",
		Message:    fmt.Sprintf("Your subscription is active until %s", endAt.Format("2006-01-02")),
		Metadata:   map[string]interface{}{"expired_ids": expiredIDs},
	})

	s.logger.Info("subscription approved",
		zap.Int64("subscription_id", id),
		zap.Int64("actor_id", actor.ID),
		zap.Int64s("expired_conflicts", expiredIDs),
	)

	return &subscription.ActionResult{
		Success:      true,
		Message:      "Subscription approved",
		Subscription: sub,
		ExpiredIDs:   expiredIDs,
	}, nil
}

// Reject denies a pending subscription. The reason is appended to the notes
// as "REJECTED: <reason>".
func (s *LifecycleService) Reject(ctx context.Context, id int64, reason string, actor auth.Actor) (*subscription.ActionResult, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minRejectReasonLen {
		return nil, xerrors.Validation("rejection reason must be at least %d characters", minRejectReasonLen)
	}

	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !subscription.IsValidTransition(sub.Status, subscription.StatusRejected) {
		return nil, xerrors.InvalidTransition("cannot transition subscription %d from %s to %s", id, sub.Status, subscription.StatusRejected)
	}

	now := s.now().UTC()
	newNotes := notes.Tagged(sub.Notes, "REJECTED", reason)
	err = s.store.ApplyStatusChange(ctx, subscription.StatusChange{
		ID:        id,
		From:      sub.Status,
		To:        subscription.StatusRejected,
		Notes:     &newNotes,
		UpdatedBy: actor.ID,
		At:        now,
	})
	if err != nil {
		return nil, s.writeError("rejection", id, err)
	}

	s.record(ctx, id, actor.ID, audit.ActionRejected, reason)
	s.metrics.Transition(string(sub.Status), string(subscription.StatusRejected))

	sub.Status = subscription.StatusRejected
	sub.Notes = newNotes
	sub.UpdatedBy, sub.UpdatedAt = actor.ID, now

	s.notifier.Notify(ctx, notification.Notification{
		Type:       notification.TypeSubscriptionRejected,
		IdentityID: sub.UserID,
		EntityID:   id,
		Title:      "Subscription rejected",
		Message:    reason,
	})

	return &subscription.ActionResult{Success: true, Message: "Subscription rejected", Subscription: sub}, nil
}

// Expire ends an active subscription early. A non-empty reason is appended to
// the notes as "MANUALLY EXPIRED: <reason>".
func (s *LifecycleService) Expire(ctx context.Context, id int64, reason string, actor auth.Actor) (*subscription.ActionResult, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !subscription.IsValidTransition(sub.Status, subscription.StatusExpired) {
		return nil, xerrors.InvalidTransition("cannot transition subscription %d from %s to %s", id, sub.Status, subscription.StatusExpired)
	}

	reason = strings.TrimSpace(reason)
	change := subscription.StatusChange{
		ID:        id,
		From:      sub.Status,
		To:        subscription.StatusExpired,
		UpdatedBy: actor.ID,
		At:        s.now().UTC(),
	}
	if reason != "" {
		newNotes := notes.Tagged(sub.Notes, "MANUALLY EXPIRED", reason)
		change.Notes = &newNotes
	}

	if err := s.store.ApplyStatusChange(ctx, change); err != nil {
		return nil, s.writeError("expiry", id, err)
	}

	auditNote := reason
	if auditNote == "" {
		auditNote = defaultExpireNote
	}
	s.record(ctx, id, actor.ID, audit.ActionExpired, auditNote)
	s.metrics.Transition(string(sub.Status), string(subscription.StatusExpired))

	sub.Status = subscription.StatusExpired
	if change.Notes != nil {
		sub.Notes = *change.Notes
	}
	sub.UpdatedBy, sub.UpdatedAt = actor.ID, change.At

	s.notifier.Notify(ctx, notification.Notification{
		Type:       notification.TypeSubscriptionExpired,
		IdentityID: sub.UserID,
		EntityID:   id,
		Title:      "Subscription expired",
		Message:    auditNote,
	})

	return &subscription.ActionResult{Success: true, Message: "Subscription expired", Subscription: sub}, nil
}

// UpdateNotes replaces the free-text notes in any state.
func (s *LifecycleService) UpdateNotes(ctx context.Context, id int64, text string, actor auth.Actor) (*subscription.Subscription, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateNotes(ctx, id, text, actor.ID); err != nil {
		return nil, s.writeError("notes update", id, err)
	}

	s.record(ctx, id, actor.ID, audit.ActionUpdated, "Notes updated")

	sub.Notes = text
	sub.UpdatedBy, sub.UpdatedAt = actor.ID, s.now().UTC()
	return sub, nil
}
