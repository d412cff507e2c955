// internal/domain/notification/entity.go
package notification

import (
	"context"
	"time"
)

type Type string

const (
	TypeSubscriptionCreated  Type = "subscription.created"
	TypePaymentSubmitted     Type = "subscription.payment_submitted"
	TypeSubscriptionApproved Type = "subscription.approved"
	TypeSubscriptionRejected Type = "subscription.rejected"
	TypeSubscriptionExpired  Type = "subscription.expired"
	TypeBetslipSettled       Type = "betslip.settled"
)

// Notification is a best-effort event for connected clients. Delivery beyond
// the live feed (email, SMS) is handled elsewhere.
type Notification struct {
	Type Type `json:"type"`
	// IdentityID is the user the event is about; zero when there is none.
	IdentityID int64 `json:"identity_id,omitempty"`
	// Admins also sends the event to connected admins.
	Admins bool `json:"-"`
	// Broadcast sends the event to every connected client.
	Broadcast bool                   `json:"-"`
	EntityID  int64                  `json:"entity_id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Notifier must not block and must never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
