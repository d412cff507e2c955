// internal/domain/audit/entity.go
package audit

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

type EntityType string

const (
	EntitySubscription EntityType = "subscription"
	EntityBetslip      EntityType = "betslip"
)

type Action string

const (
	// Subscription lifecycle
	ActionCreated          Action = "created"
	ActionSubmittedPayment Action = "submitted_payment"
	ActionApproved         Action = "approved"
	ActionRejected         Action = "rejected"
	ActionExpired          Action = "expired"
	ActionUpdated          Action = "updated"

	// Betslip settlement
	ActionLegAdded   Action = "leg_added"
	ActionLegSettled Action = "leg_settled"
	ActionSettled    Action = "settled"
)

// Entry is an immutable audit row. Entries are only ever appended.
type Entry struct {
	ID         string     `json:"id" db:"id"`
	EntityType EntityType `json:"entity_type" db:"entity_type"`
	EntityID   int64      `json:"entity_id" db:"entity_id"`
	ActorID    int64      `json:"actor_id" db:"actor_id"`
	Action     Action     `json:"action" db:"action"`
	Notes      string     `json:"notes" db:"notes"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// NewEntry stamps an entry with a ULID and the current time.
func NewEntry(entityType EntityType, entityID, actorID int64, action Action, notes string) Entry {
	return Entry{
		ID:         ulid.Make().String(),
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     action,
		Notes:      notes,
		CreatedAt:  time.Now().UTC(),
	}
}

// Logger is the fire-and-forget audit collaborator. Append never fails the
// caller; delivery problems are the implementation's to log.
type Logger interface {
	Append(ctx context.Context, entry Entry)
}

// Repository persists and reads audit entries.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entityType EntityType, entityID int64) ([]Entry, error)
}
