package repository

import (
	"context"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
)

// CreditEntryRepository is the port for the append-only audit trail. Entries
// are written in the same transaction as the balance change they record.
type CreditEntryRepository interface {
	Append(ctx context.Context, tx Tx, e *model.CreditEntry) error
	ListByAgent(ctx context.Context, tx Tx, agentID string, limit int) ([]*model.CreditEntry, error)
}
