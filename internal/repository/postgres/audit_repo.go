// internal/repository/postgres/audit_repo.go
package postgres

import (
	"context"
	"fmt"

	"tipster-service/internal/domain/audit"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository is the append-only sink for subscription and betslip events.
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, e audit.Entry) error {
	query := `
		INSERT INTO audit_events (id, entity_type, entity_id, actor_id, action, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query, e.ID, e.EntityType, e.EntityID, e.ActorID, e.Action, e.Notes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// ListByEntity returns an entity's events in the order they were recorded.
// ULIDs sort by creation time, so id breaks ties within the same instant.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID int64) ([]audit.Entry, error) {
	query := `
		SELECT id, entity_type, entity_id, actor_id, action, notes, created_at
		FROM audit_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.ActorID, &e.Action, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
