package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

// Availability is the result of a read-only balance check.
type Availability struct {
	Sufficient bool
	Balance    int
}

// LedgerUseCase owns all credit balance mutations. Every deduct or credit is
// a single conditional update paired with an audit entry in the same
// transaction; no caller reads then writes the balance.
type LedgerUseCase struct {
	agents  repository.AgentRepository
	entries repository.CreditEntryRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewLedgerUseCase(agents repository.AgentRepository, entries repository.CreditEntryRepository, tm repository.TransactionManager, logger *zerolog.Logger) *LedgerUseCase {
	l := logger.With().Str("component", "LedgerUC").Logger()
	return &LedgerUseCase{agents: agents, entries: entries, tm: tm, log: &l}
}

// CheckAvailability reports whether the agent's balance covers amount.
func (uc *LedgerUseCase) CheckAvailability(ctx context.Context, agentID string, amount int) (Availability, error) {
	if amount < 0 {
		return Availability{}, domain.ErrInvalidArgument
	}
	a, err := uc.agents.FindByID(ctx, repository.NoTx, agentID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Sufficient: a.CreditBalance >= amount, Balance: a.CreditBalance}, nil
}

// Deduct atomically subtracts amount from the agent's balance and records an
// audit entry. When tx is nil the pair runs in its own transaction; otherwise
// it joins the caller's. Returns the new balance.
func (uc *LedgerUseCase) Deduct(ctx context.Context, tx repository.Tx, agentID string, amount int, reason string) (int, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidArgument
	}
	if tx != nil {
		return uc.deductTx(ctx, tx, agentID, amount, reason)
	}
	var newBalance int
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		newBalance, err = uc.deductTx(ctx, tx, agentID, amount, reason)
		return err
	})
	return newBalance, err
}

func (uc *LedgerUseCase) deductTx(ctx context.Context, tx repository.Tx, agentID string, amount int, reason string) (int, error) {
	newBalance, err := uc.agents.DeductBalance(ctx, tx, agentID, amount)
	if err != nil {
		return 0, err
	}
	if err := uc.appendEntry(ctx, tx, agentID, -amount, reason, newBalance); err != nil {
		return 0, err
	}
	uc.log.Debug().Str("agent_id", agentID).Int("amount", amount).Str("reason", reason).Int("balance", newBalance).Msg("credits deducted")
	return newBalance, nil
}

// Credit atomically adds amount to the agent's balance and records an audit
// entry. Same transaction rules as Deduct.
func (uc *LedgerUseCase) Credit(ctx context.Context, tx repository.Tx, agentID string, amount int, reason string) (int, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidArgument
	}
	if tx != nil {
		return uc.creditTx(ctx, tx, agentID, amount, reason)
	}
	var newBalance int
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		newBalance, err = uc.creditTx(ctx, tx, agentID, amount, reason)
		return err
	})
	return newBalance, err
}

func (uc *LedgerUseCase) creditTx(ctx context.Context, tx repository.Tx, agentID string, amount int, reason string) (int, error) {
	newBalance, err := uc.agents.CreditBalance(ctx, tx, agentID, amount)
	if err != nil {
		return 0, err
	}
	if err := uc.appendEntry(ctx, tx, agentID, amount, reason, newBalance); err != nil {
		return 0, err
	}
	uc.log.Debug().Str("agent_id", agentID).Int("amount", amount).Str("reason", reason).Int("balance", newBalance).Msg("credits granted")
	return newBalance, nil
}

func (uc *LedgerUseCase) appendEntry(ctx context.Context, tx repository.Tx, agentID string, delta int, reason string, balanceAfter int) error {
	return uc.entries.Append(ctx, tx, &model.CreditEntry{
		ID:           uuid.NewString(),
		AgentID:      agentID,
		Delta:        delta,
		Reason:       reason,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now(),
	})
}

// Entries returns the most recent audit entries for an agent.
func (uc *LedgerUseCase) Entries(ctx context.Context, agentID string, limit int) ([]*model.CreditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if _, err := uc.agents.FindByID(ctx, repository.NoTx, agentID); err != nil {
		return nil, err
	}
	return uc.entries.ListByAgent(ctx, repository.NoTx, agentID, limit)
}
