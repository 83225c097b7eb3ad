package repository

import (
	"context"
	"time"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
)

// SiteRepository is the port for site records and lifecycle writes.
type SiteRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Site) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Site, error)
	ListByAgent(ctx context.Context, tx Tx, agentID string) ([]*model.Site, error)

	// FindByIDForUpdate locks the site row for the enclosing transaction.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.Site, error)

	// ListPausedByAgentForUpdate locks every paused row of the agent so a
	// bulk resume sees a consistent set.
	ListPausedByAgentForUpdate(ctx context.Context, tx Tx, agentID string) ([]*model.Site, error)

	CountLiveByAgent(ctx context.Context, tx Tx, agentID string) (int, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.SiteStatus]int, error)

	// ListDueLive returns every live site whose billing period has elapsed at
	// now (monthly >30d, annual >365d, or never charged).
	ListDueLive(ctx context.Context, tx Tx, now time.Time) ([]*model.Site, error)

	// MarkCharged stamps last_hosting_charged_at = chargedAt iff the stored
	// value still equals prev (NULL-safe). Returns domain.ErrTxConflict when
	// the guard loses, which callers treat as "someone else already charged".
	MarkCharged(ctx context.Context, tx Tx, siteID string, prev *time.Time, chargedAt time.Time) error

	// UpdateStatus moves the site between preview/live/paused.
	UpdateStatus(ctx context.Context, tx Tx, siteID string, status model.SiteStatus) error
}
