package subscription

import (
	"context"
	"time"
)

// Repository is the storage collaborator for subscriptions and the child rows
// they own.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Subscription, error)
	// LockUser holds the user's subscription rows against concurrent
	// approvals until the surrounding transaction ends.
	LockUser(ctx context.Context, userID int64) error
	ListActiveByUser(ctx context.Context, userID int64) ([]Subscription, error)
	ListActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]Subscription, error)
	Create(ctx context.Context, sub *Subscription) error
	// ApplyStatusChange returns xerrors.ErrNotFound when the row is missing and
	// xerrors.ErrInvalidTransition when the stored status no longer equals From.
	ApplyStatusChange(ctx context.Context, change StatusChange) error
	UpdateNotes(ctx context.Context, id int64, notes string, updatedBy int64) error
	CreateReceipt(ctx context.Context, receipt *PaymentReceipt) error
	ListReceipts(ctx context.Context, subscriptionID int64) ([]PaymentReceipt, error)
}

// Store adds transactional grouping. Writes made through the repository passed
// to fn commit together or not at all.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type PackageRepository interface {
	FindByID(ctx context.Context, id int64) (*Package, error)
	ListActive(ctx context.Context) ([]Package, error)
}
