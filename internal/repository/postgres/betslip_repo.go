// internal/repository/postgres/betslip_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"tipster-service/internal/domain/betslip"
	xerrors "tipster-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const betslipColumns = `
	id, type, league, title, selection, odds_decimal, combined_odds, stake_units,
	required_tier, tags, status, outcome, notes, settled_at, settled_by,
	created_by, created_at, updated_at`

const legColumns = `
	id, betslip_id, leg_order, title, description, odds_decimal,
	status, notes, settled_at, created_at, updated_at`

type BetslipRepository struct {
	db *DB
	q  querier
}

func NewBetslipRepository(db *DB) *BetslipRepository {
	return &BetslipRepository{db: db, q: db.pool}
}

func (r *BetslipRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo betslip.Repository) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &BetslipRepository{db: r.db, q: tx})
	})
}

func scanBetslip(row pgx.Row) (*betslip.Betslip, error) {
	var b betslip.Betslip
	var tags []string
	err := row.Scan(
		&b.ID, &b.Type, &b.League, &b.Title, &b.Selection, &b.OddsDecimal, &b.CombinedOdds, &b.StakeUnits,
		&b.RequiredTier, pq.Array(&tags), &b.Status, &b.Outcome, &b.Notes, &b.SettledAt, &b.SettledBy,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	b.Tags = tags
	return &b, nil
}

func scanLeg(row pgx.Row) (*betslip.Leg, error) {
	var l betslip.Leg
	err := row.Scan(
		&l.ID, &l.BetslipID, &l.LegOrder, &l.Title, &l.Description, &l.OddsDecimal,
		&l.Status, &l.Notes, &l.SettledAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *BetslipRepository) findOne(ctx context.Context, query string, id int64) (*betslip.Betslip, error) {
	b, err := scanBetslip(r.q.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find betslip: %w", err)
	}
	return b, nil
}

func (r *BetslipRepository) FindByID(ctx context.Context, id int64) (*betslip.Betslip, error) {
	return r.findOne(ctx, `SELECT`+betslipColumns+` FROM betslips WHERE id = $1`, id)
}

// LockByID must run inside WithinTx; the row lock is held until commit.
func (r *BetslipRepository) LockByID(ctx context.Context, id int64) (*betslip.Betslip, error) {
	return r.findOne(ctx, `SELECT`+betslipColumns+` FROM betslips WHERE id = $1 FOR UPDATE`, id)
}

func (r *BetslipRepository) Create(ctx context.Context, b *betslip.Betslip) error {
	query := `
		INSERT INTO betslips (
			type, league, title, selection, odds_decimal, combined_odds, stake_units,
			required_tier, tags, status, outcome, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(
		ctx, query,
		b.Type, b.League, b.Title, b.Selection, b.OddsDecimal, b.CombinedOdds, b.StakeUnits,
		b.RequiredTier, pq.Array(b.Tags), b.Status, b.Outcome, b.Notes, b.CreatedBy,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create betslip: %w", err)
	}

	return nil
}

func (r *BetslipRepository) UpdateShape(ctx context.Context, id int64, t betslip.Type, combinedOdds *float64) error {
	query := `UPDATE betslips SET type = $1, combined_odds = $2, updated_at = $3 WHERE id = $4`

	result, err := r.q.Exec(ctx, query, t, combinedOdds, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update betslip type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// Settle only touches a slip that is still pending with a pending outcome.
func (r *BetslipRepository) Settle(ctx context.Context, s betslip.Settlement) error {
	query := `
		UPDATE betslips
		SET status = 'settled', outcome = $1, notes = $2, settled_at = $3, settled_by = $4, updated_at = $3
		WHERE id = $5 AND status = 'pending' AND outcome = 'pending'
	`

	result, err := r.q.Exec(ctx, query, s.Outcome, s.Notes, s.SettledAt, s.SettledBy, s.BetslipID)
	if err != nil {
		return fmt.Errorf("failed to settle betslip: %w", err)
	}

	if result.RowsAffected() == 0 {
		var outcome betslip.Outcome
		err := r.q.QueryRow(ctx, `SELECT outcome FROM betslips WHERE id = $1`, s.BetslipID).Scan(&outcome)
		if isNoRows(err) {
			return xerrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read betslip outcome: %w", err)
		}
		return xerrors.InvalidTransition("betslip %d is already settled as %s", s.BetslipID, outcome)
	}

	return nil
}

// ListLegs returns legs ordered by leg_order.
func (r *BetslipRepository) ListLegs(ctx context.Context, betslipID int64) ([]betslip.Leg, error) {
	rows, err := r.q.Query(ctx, `SELECT`+legColumns+` FROM betslip_legs WHERE betslip_id = $1 ORDER BY leg_order ASC`, betslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list legs: %w", err)
	}
	defer rows.Close()

	legs := []betslip.Leg{}
	for rows.Next() {
		l, err := scanLeg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leg: %w", err)
		}
		legs = append(legs, *l)
	}

	return legs, rows.Err()
}

func (r *BetslipRepository) FindLegByID(ctx context.Context, id int64) (*betslip.Leg, error) {
	l, err := scanLeg(r.q.QueryRow(ctx, `SELECT`+legColumns+` FROM betslip_legs WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find leg: %w", err)
	}
	return l, nil
}

func (r *BetslipRepository) MaxLegOrder(ctx context.Context, betslipID int64) (int, error) {
	var max int
	err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(leg_order), 0) FROM betslip_legs WHERE betslip_id = $1`, betslipID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read leg order: %w", err)
	}
	return max, nil
}

func (r *BetslipRepository) InsertLeg(ctx context.Context, l *betslip.Leg) error {
	query := `
		INSERT INTO betslip_legs (betslip_id, leg_order, title, description, odds_decimal, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(
		ctx, query,
		l.BetslipID, l.LegOrder, l.Title, l.Description, l.OddsDecimal, l.Status, l.Notes,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)

	if isUniqueViolation(err) {
		return xerrors.Conflict("leg %d already exists on betslip %d", l.LegOrder, l.BetslipID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert leg: %w", err)
	}

	return nil
}

func (r *BetslipRepository) SettleLeg(ctx context.Context, s betslip.LegSettlement) error {
	query := `
		UPDATE betslip_legs
		SET status = $1, notes = $2, settled_at = $3, updated_at = $3
		WHERE id = $4 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, s.Status, s.Notes, s.SettledAt, s.LegID)
	if err != nil {
		return fmt.Errorf("failed to settle leg: %w", err)
	}

	if result.RowsAffected() == 0 {
		var status betslip.Outcome
		err := r.q.QueryRow(ctx, `SELECT status FROM betslip_legs WHERE id = $1`, s.LegID).Scan(&status)
		if isNoRows(err) {
			return xerrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read leg status: %w", err)
		}
		return xerrors.InvalidTransition("leg %d is already settled as %s", s.LegID, status)
	}

	return nil
}
