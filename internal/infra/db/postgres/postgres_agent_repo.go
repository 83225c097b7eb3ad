package postgres

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.AgentRepository = (*agentRepo)(nil)

type agentRepo struct {
	pool *pgxpool.Pool
}

func NewAgentRepo(pool *pgxpool.Pool) *agentRepo {
	return &agentRepo{pool: pool}
}

func (r *agentRepo) Save(ctx context.Context, tx repository.Tx, a *model.Agent) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = `
INSERT INTO agents (id, email, display_name, credit_balance, ai_credits_used, registered_at, last_active_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  email=$2, display_name=$3, last_active_at=$7;`
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.Email, a.DisplayName, a.CreditBalance, a.AICreditsUsed, a.RegisteredAt, a.LastActiveAt)
	return err
}

const agentColumns = `id, email, display_name, credit_balance, ai_credits_used, registered_at, last_active_at`

func (r *agentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Agent, error) {
	return r.queryOne(ctx, tx, `SELECT `+agentColumns+` FROM agents WHERE id=$1;`, id)
}

func (r *agentRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Agent, error) {
	return r.queryOne(ctx, tx, `SELECT `+agentColumns+` FROM agents WHERE email=$1;`, email)
}

func (r *agentRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Agent, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	var a model.Agent
	if err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.CreditBalance, &a.AICreditsUsed, &a.RegisteredAt, &a.LastActiveAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// DeductBalance is the core atomic ledger write: the balance check and the
// decrement are one conditional statement, so two concurrent deductions that
// jointly overdraw can never both commit. A zero-row result is probed to
// tell a missing agent from an insufficient balance.
func (r *agentRepo) DeductBalance(ctx context.Context, tx repository.Tx, agentID string, amount int) (int, error) {
	const q = `
UPDATE agents
   SET credit_balance = credit_balance - $2
 WHERE id = $1 AND credit_balance >= $2
RETURNING credit_balance;`
	row, err := pickRow(ctx, r.pool, tx, q, agentID, amount)
	if err != nil {
		return 0, err
	}
	var newBalance int
	if err := row.Scan(&newBalance); err == nil {
		return newBalance, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	a, err := r.FindByID(ctx, tx, agentID)
	if err != nil {
		return 0, err
	}
	return 0, &domain.InsufficientCreditsError{Required: amount, Available: a.CreditBalance}
}

func (r *agentRepo) CreditBalance(ctx context.Context, tx repository.Tx, agentID string, amount int) (int, error) {
	const q = `
UPDATE agents
   SET credit_balance = credit_balance + $2
 WHERE id = $1
RETURNING credit_balance;`
	row, err := pickRow(ctx, r.pool, tx, q, agentID, amount)
	if err != nil {
		return 0, err
	}
	var newBalance int
	if err := row.Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAgentNotFound
		}
		return 0, err
	}
	return newBalance, nil
}

func (r *agentRepo) AddAIUsage(ctx context.Context, tx repository.Tx, agentID string, amount int) error {
	const q = `UPDATE agents SET ai_credits_used = ai_credits_used + $2 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, agentID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// Lock takes a transaction-scoped advisory lock keyed by the agent id. Held
// until commit/rollback, it serializes live-count checks and deductions for
// one agent across concurrent deploys and resumes.
func (r *agentRepo) Lock(ctx context.Context, tx repository.Tx, agentID string) error {
	_, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64(agentID))
	return err
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}
