// internal/domain/subscription/entity.go
package subscription

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusRejected Status = "rejected"
)

var AllStatuses = []Status{StatusPending, StatusActive, StatusExpired, StatusRejected}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusRejected
}

type Subscription struct {
	ID        int64  `json:"id" db:"id"`
	Reference string `json:"reference" db:"reference"`

	// Related entities
	UserID    int64 `json:"user_id" db:"user_id"`
	PackageID int64 `json:"package_id" db:"package_id"`

	Status Status `json:"status" db:"status"`

	// Active window; set on approval and kept afterwards
	StartAt *time.Time `json:"start_at,omitempty" db:"start_at"`
	EndAt   *time.Time `json:"end_at,omitempty" db:"end_at"`

	Notes string `json:"notes" db:"notes"`

	CreatedBy int64     `json:"created_by" db:"created_by"`
	UpdatedBy int64     `json:"updated_by" db:"updated_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Window returns the active window, ok=false when it was never assigned.
func (s *Subscription) Window() (start, end time.Time, ok bool) {
	if s.StartAt == nil || s.EndAt == nil {
		return time.Time{}, time.Time{}, false
	}
	return *s.StartAt, *s.EndAt, true
}

// HasEnded reports whether an active subscription's end date is before now.
func (s *Subscription) HasEnded(now time.Time) bool {
	return s.Status == StatusActive && s.EndAt != nil && s.EndAt.Before(now)
}

// PaymentReceipt is a manually verified proof of payment attached to a
// pending subscription. The uploaded file lives elsewhere; only its URL is kept.
type PaymentReceipt struct {
	ID             int64     `json:"id" db:"id"`
	SubscriptionID int64     `json:"subscription_id" db:"subscription_id"`
	PaymentMethod  string    `json:"payment_method" db:"payment_method"`
	Reference      string    `json:"reference" db:"reference"`
	AmountCents    int64     `json:"amount_cents" db:"amount_cents"`
	ReceiptURL     string    `json:"receipt_url,omitempty" db:"receipt_url"`
	SubmittedBy    int64     `json:"submitted_by" db:"submitted_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// StatusChange is a compare-and-set status write: it only applies while the
// stored status still equals From.
type StatusChange struct {
	ID        int64
	From      Status
	To        Status
	StartAt   *time.Time
	EndAt     *time.Time
	Notes     *string
	UpdatedBy int64
	At        time.Time
}
