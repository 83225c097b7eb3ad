package repository

import (
	"context"
	"time"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
)

// RedemptionCodeRepository is the port for prepaid codes.
type RedemptionCodeRepository interface {
	// Save creates a code. Codes are minted by admin tooling only.
	Save(ctx context.Context, tx Tx, code *model.RedemptionCode) error

	// FindByCode looks up a code by its normalized form.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.RedemptionCode, error)

	// FindByCodeForUpdate locks the code row for the enclosing transaction.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.RedemptionCode, error)

	// MarkRedeemed flips is_redeemed exactly once: the update is conditional
	// on is_redeemed = FALSE and reports domain.ErrCodeAlreadyRedeemed when
	// the row was already consumed.
	MarkRedeemed(ctx context.Context, tx Tx, codeID, agentID string, at time.Time) error
}
