package model

import (
	"time"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"

	"github.com/google/uuid"
)

// StartingCreditBalance is granted to every agent at signup.
const StartingCreditBalance = 10

// Agent is a domain entity representing a sales agent account. The credit
// balance is the sole spendable unit; it is mutated only through the ledger.
type Agent struct {
	ID            string
	Email         string
	DisplayName   string
	CreditBalance int
	AICreditsUsed int
	RegisteredAt  time.Time
	LastActiveAt  time.Time
}

func NewAgent(id, email, displayName string) (*Agent, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Agent{
		ID:            id,
		Email:         email,
		DisplayName:   displayName,
		CreditBalance: StartingCreditBalance,
		RegisteredAt:  now,
		LastActiveAt:  now,
	}, nil
}

func (a *Agent) IsZero() bool { return a == nil || a.ID == "" }
func (a *Agent) Touch()       { a.LastActiveAt = time.Now() }
