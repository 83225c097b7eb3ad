package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

var _ repository.RedemptionCodeRepository = (*redemptionCodeRepo)(nil)

type redemptionCodeRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionCodeRepo(pool *pgxpool.Pool) *redemptionCodeRepo {
	return &redemptionCodeRepo{pool: pool}
}

const codeColumns = `id, code, package_id, is_redeemed, redeemed_by, redeemed_at, created_at, expires_at`

func (r *redemptionCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.RedemptionCode) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
INSERT INTO redemption_codes (id, code, package_id, is_redeemed, redeemed_by, redeemed_at, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Code, c.PackageID, c.IsRedeemed, c.RedeemedBy, c.RedeemedAt, c.CreatedAt, c.ExpiresAt)
	return err
}

func (r *redemptionCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	return r.queryOne(ctx, tx, `SELECT `+codeColumns+` FROM redemption_codes WHERE code=$1;`, code)
}

func (r *redemptionCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.RedemptionCode, error) {
	return r.queryOne(ctx, tx, `SELECT `+codeColumns+` FROM redemption_codes WHERE code=$1 FOR UPDATE;`, code)
}

// MarkRedeemed flips the code exactly once. The conditional update is the
// last line of defense when two transactions race past the FOR UPDATE read.
func (r *redemptionCodeRepo) MarkRedeemed(ctx context.Context, tx repository.Tx, codeID, agentID string, at time.Time) error {
	const q = `
UPDATE redemption_codes
   SET is_redeemed = TRUE, redeemed_by = $2, redeemed_at = $3
 WHERE id = $1 AND is_redeemed = FALSE;`
	tag, err := execSQL(ctx, r.pool, tx, q, codeID, agentID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeAlreadyRedeemed
	}
	return nil
}

func (r *redemptionCodeRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.RedemptionCode, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	var c model.RedemptionCode
	err = row.Scan(&c.ID, &c.Code, &c.PackageID, &c.IsRedeemed, &c.RedeemedBy, &c.RedeemedAt, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return &c, nil
}
