// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	id, reference, user_id, package_id, status, start_at, end_at,
	notes, created_by, updated_by, created_at, updated_at`

type SubscriptionRepository struct {
	db *DB
	q  querier
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, q: db.pool}
}

// WithinTx hands fn a repository bound to a single transaction.
func (r *SubscriptionRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo subscription.Repository) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &SubscriptionRepository{db: r.db, q: tx})
	})
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.Reference, &sub.UserID, &sub.PackageID, &sub.Status, &sub.StartAt, &sub.EndAt,
		&sub.Notes, &sub.CreatedBy, &sub.UpdatedBy, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) list(ctx context.Context, query string, args ...any) ([]subscription.Subscription, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []subscription.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}

	return subs, rows.Err()
}

// FindByID retrieves a subscription by ID
func (r *SubscriptionRepository) FindByID(ctx context.Context, id int64) (*subscription.Subscription, error) {
	query := `SELECT` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(r.q.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	return sub, nil
}

// LockUser must run inside WithinTx. Approvals for the same user queue here,
// so each one lists active rows only after the previous one committed.
func (r *SubscriptionRepository) LockUser(ctx context.Context, userID int64) error {
	if _, err := r.q.Exec(ctx, `SELECT id FROM subscriptions WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return fmt.Errorf("failed to lock user subscriptions: %w", err)
	}
	return nil
}

// ListActiveByUser returns every active subscription of a user, oldest window first.
func (r *SubscriptionRepository) ListActiveByUser(ctx context.Context, userID int64) ([]subscription.Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY start_at ASC, id ASC
	`
	return r.list(ctx, query, userID)
}

// ListActiveEndedBefore returns active subscriptions whose end date has passed.
func (r *SubscriptionRepository) ListActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]subscription.Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'active' AND end_at < $1
		ORDER BY end_at ASC, id ASC
	`
	return r.list(ctx, query, cutoff)
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			reference, user_id, package_id, status, start_at, end_at, notes, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(
		ctx, query,
		sub.Reference, sub.UserID, sub.PackageID, sub.Status, sub.StartAt, sub.EndAt,
		sub.Notes, sub.CreatedBy, sub.UpdatedBy,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)

	if isUniqueViolation(err) {
		return xerrors.Conflict("subscription reference %s already exists", sub.Reference)
	}
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// ApplyStatusChange writes the new status only while the row still has the
// expected current status.
func (r *SubscriptionRepository) ApplyStatusChange(ctx context.Context, change subscription.StatusChange) error {
	query := `
		UPDATE subscriptions
		SET status = $1,
		    start_at = COALESCE($2, start_at),
		    end_at = COALESCE($3, end_at),
		    notes = COALESCE($4, notes),
		    updated_by = $5,
		    updated_at = $6
		WHERE id = $7 AND status = $8
	`

	result, err := r.q.Exec(
		ctx, query,
		change.To, change.StartAt, change.EndAt, change.Notes,
		change.UpdatedBy, change.At, change.ID, change.From,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.statusMismatch(ctx, change.ID, change.From)
	}

	return nil
}

func (r *SubscriptionRepository) statusMismatch(ctx context.Context, id int64, expected subscription.Status) error {
	var current subscription.Status
	err := r.q.QueryRow(ctx, `SELECT status FROM subscriptions WHERE id = $1`, id).Scan(&current)
	if isNoRows(err) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read subscription status: %w", err)
	}
	return xerrors.InvalidTransition("subscription %d is %s, expected %s", id, current, expected)
}

func (r *SubscriptionRepository) UpdateNotes(ctx context.Context, id int64, notes string, updatedBy int64) error {
	query := `UPDATE subscriptions SET notes = $1, updated_by = $2, updated_at = $3 WHERE id = $4`

	result, err := r.q.Exec(ctx, query, notes, updatedBy, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

func (r *SubscriptionRepository) CreateReceipt(ctx context.Context, receipt *subscription.PaymentReceipt) error {
	query := `
		INSERT INTO payment_receipts (
			subscription_id, payment_method, reference, amount_cents, receipt_url, submitted_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(
		ctx, query,
		receipt.SubscriptionID, receipt.PaymentMethod, receipt.Reference,
		receipt.AmountCents, receipt.ReceiptURL, receipt.SubmittedBy,
	).Scan(&receipt.ID, &receipt.CreatedAt)

	if isUniqueViolation(err) {
		return xerrors.Conflict("payment reference %s was already submitted", receipt.Reference)
	}
	if err != nil {
		return fmt.Errorf("failed to create payment receipt: %w", err)
	}

	return nil
}

func (r *SubscriptionRepository) ListReceipts(ctx context.Context, subscriptionID int64) ([]subscription.PaymentReceipt, error) {
	query := `
		SELECT id, subscription_id, payment_method, reference, amount_cents, receipt_url, submitted_by, created_at
		FROM payment_receipts
		WHERE subscription_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment receipts: %w", err)
	}
	defer rows.Close()

	receipts := []subscription.PaymentReceipt{}
	for rows.Next() {
		var rc subscription.PaymentReceipt
		if err := rows.Scan(
			&rc.ID, &rc.SubscriptionID, &rc.PaymentMethod, &rc.Reference,
			&rc.AmountCents, &rc.ReceiptURL, &rc.SubmittedBy, &rc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment receipt: %w", err)
		}
		receipts = append(receipts, rc)
	}

	return receipts, rows.Err()
}
