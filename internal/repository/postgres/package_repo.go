// internal/repository/postgres/package_repo.go
package postgres

import (
	"context"
	"fmt"

	"tipster-service/internal/domain/subscription"
	xerrors "tipster-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PackageRepository struct {
	db *pgxpool.Pool
}

func NewPackageRepository(db *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageColumns = `
	id, name, tier, duration_days, price_cents, original_price_cents,
	active, sort_order, created_at, updated_at`

func scanPackage(row pgx.Row) (*subscription.Package, error) {
	var p subscription.Package
	err := row.Scan(
		&p.ID, &p.Name, &p.Tier, &p.DurationDays, &p.PriceCents, &p.OriginalPriceCents,
		&p.Active, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepository) FindByID(ctx context.Context, id int64) (*subscription.Package, error) {
	p, err := scanPackage(r.db.QueryRow(ctx, `SELECT`+packageColumns+` FROM packages WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find package: %w", err)
	}
	return p, nil
}

// ListActive returns purchasable packages in display order.
func (r *PackageRepository) ListActive(ctx context.Context) ([]subscription.Package, error) {
	rows, err := r.db.Query(ctx, `SELECT`+packageColumns+` FROM packages WHERE active = TRUE ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	packages := []subscription.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, *p)
	}

	return packages, rows.Err()
}
