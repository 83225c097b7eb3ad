package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

var _ repository.CreditPackageRepository = (*creditPackageRepo)(nil)

type creditPackageRepo struct {
	pool *pgxpool.Pool
}

func NewCreditPackageRepo(pool *pgxpool.Pool) *creditPackageRepo {
	return &creditPackageRepo{pool: pool}
}

func (r *creditPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.CreditPackage) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO credit_packages (id, name, credits, price_cents, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  name=$2, credits=$3, price_cents=$4, is_active=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Credits, p.PriceCents, p.IsActive, p.CreatedAt)
	return err
}

func (r *creditPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CreditPackage, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, name, credits, price_cents, is_active, created_at FROM credit_packages WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	var p model.CreditPackage
	err = row.Scan(&p.ID, &p.Name, &p.Credits, &p.PriceCents, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *creditPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.CreditPackage, error) {
	const q = `SELECT id, name, credits, price_cents, is_active, created_at FROM credit_packages WHERE is_active ORDER BY credits ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CreditPackage
	for rows.Next() {
		var p model.CreditPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.Credits, &p.PriceCents, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
