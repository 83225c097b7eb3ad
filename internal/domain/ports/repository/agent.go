package repository

import (
	"context"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
)

// AgentRepository is the port for agent records. Balance mutations go through
// DeductBalance/CreditBalance only; no caller reads then writes the balance.
type AgentRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Agent) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Agent, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Agent, error)

	// DeductBalance atomically subtracts amount from the agent's balance iff
	// the balance covers it: a single conditional update, never read-then-write.
	// Returns the new balance, domain.ErrAgentNotFound, or
	// *domain.InsufficientCreditsError.
	DeductBalance(ctx context.Context, tx Tx, agentID string, amount int) (int, error)

	// CreditBalance atomically adds amount and returns the new balance.
	CreditBalance(ctx context.Context, tx Tx, agentID string, amount int) (int, error)

	// AddAIUsage bumps the informational ai_credits_used counter.
	AddAIUsage(ctx context.Context, tx Tx, agentID string, amount int) error

	// Lock serializes admission decisions for one agent within the enclosing
	// transaction (advisory xact lock in Postgres). Counting live sites and
	// deducting credits form a single decision behind this lock.
	Lock(ctx context.Context, tx Tx, agentID string) error
}
