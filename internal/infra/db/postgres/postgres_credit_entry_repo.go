package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

var _ repository.CreditEntryRepository = (*creditEntryRepo)(nil)

type creditEntryRepo struct {
	pool *pgxpool.Pool
}

func NewCreditEntryRepo(pool *pgxpool.Pool) *creditEntryRepo {
	return &creditEntryRepo{pool: pool}
}

func (r *creditEntryRepo) Append(ctx context.Context, tx repository.Tx, e *model.CreditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const q = `
INSERT INTO credit_entries (id, agent_id, delta, reason, balance_after, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.AgentID, e.Delta, e.Reason, e.BalanceAfter, e.CreatedAt)
	return err
}

func (r *creditEntryRepo) ListByAgent(ctx context.Context, tx repository.Tx, agentID string, limit int) ([]*model.CreditEntry, error) {
	const q = `
SELECT id, agent_id, delta, reason, balance_after, created_at
  FROM credit_entries
 WHERE agent_id = $1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CreditEntry
	for rows.Next() {
		var e model.CreditEntry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Delta, &e.Reason, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
