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

var _ repository.SiteRepository = (*siteRepo)(nil)

type siteRepo struct {
	pool *pgxpool.Pool
}

func NewSiteRepo(pool *pgxpool.Pool) *siteRepo {
	return &siteRepo{pool: pool}
}

const siteColumns = `id, agent_id, name, status, hosting_plan, deployed_at, last_hosting_charged_at, created_at, updated_at`

func (r *siteRepo) Save(ctx context.Context, tx repository.Tx, s *model.Site) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const q = `
INSERT INTO sites (id, agent_id, name, status, hosting_plan, deployed_at, last_hosting_charged_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name=$3, status=$4, hosting_plan=$5, deployed_at=$6, last_hosting_charged_at=$7, updated_at=$9;`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.AgentID, s.Name, s.Status, nullPlan(s.HostingPlan), s.DeployedAt, s.LastHostingChargedAt, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *siteRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Site, error) {
	return r.queryOne(ctx, tx, `SELECT `+siteColumns+` FROM sites WHERE id=$1;`, id)
}

func (r *siteRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Site, error) {
	return r.queryOne(ctx, tx, `SELECT `+siteColumns+` FROM sites WHERE id=$1 FOR UPDATE;`, id)
}

func (r *siteRepo) ListByAgent(ctx context.Context, tx repository.Tx, agentID string) ([]*model.Site, error) {
	const q = `SELECT ` + siteColumns + ` FROM sites WHERE agent_id=$1 ORDER BY created_at ASC;`
	return r.queryMany(ctx, tx, q, agentID)
}

func (r *siteRepo) ListPausedByAgentForUpdate(ctx context.Context, tx repository.Tx, agentID string) ([]*model.Site, error) {
	const q = `
SELECT ` + siteColumns + `
  FROM sites
 WHERE agent_id=$1 AND status='paused'
 ORDER BY created_at ASC
   FOR UPDATE;`
	return r.queryMany(ctx, tx, q, agentID)
}

func (r *siteRepo) CountLiveByAgent(ctx context.Context, tx repository.Tx, agentID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM sites WHERE agent_id=$1 AND status='live';`, agentID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *siteRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SiteStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM sites GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[model.SiteStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.SiteStatus(status)] = n
	}
	return out, rows.Err()
}

// ListDueLive selects live sites whose billing period has elapsed: monthly
// past 30 days, annual past 365, or never charged at all.
func (r *siteRepo) ListDueLive(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Site, error) {
	const q = `
SELECT ` + siteColumns + `
  FROM sites
 WHERE status = 'live'
   AND (
        last_hosting_charged_at IS NULL
     OR (hosting_plan = 'monthly' AND last_hosting_charged_at < $1 - INTERVAL '30 days')
     OR (hosting_plan = 'annual'  AND last_hosting_charged_at < $1 - INTERVAL '365 days')
   )
 ORDER BY last_hosting_charged_at ASC NULLS FIRST;`
	return r.queryMany(ctx, tx, q, now)
}

// MarkCharged stamps the charge date only if nobody charged the site since
// prev was read. The NULL-safe comparison lets never-charged sites pass.
func (r *siteRepo) MarkCharged(ctx context.Context, tx repository.Tx, siteID string, prev *time.Time, chargedAt time.Time) error {
	const q = `
UPDATE sites
   SET last_hosting_charged_at = $3, updated_at = $3
 WHERE id = $1
   AND status = 'live'
   AND last_hosting_charged_at IS NOT DISTINCT FROM $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, siteID, prev, chargedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTxConflict
	}
	return nil
}

func (r *siteRepo) UpdateStatus(ctx context.Context, tx repository.Tx, siteID string, status model.SiteStatus) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE sites SET status=$2, updated_at=NOW() WHERE id=$1;`, siteID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSiteNotFound
	}
	return nil
}

func (r *siteRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Site, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	s, err := scanSite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *siteRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) ([]*model.Site, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSite(row pgx.Row) (*model.Site, error) {
	var (
		s    model.Site
		plan *string
	)
	if err := row.Scan(&s.ID, &s.AgentID, &s.Name, &s.Status, &plan, &s.DeployedAt, &s.LastHostingChargedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if plan != nil {
		s.HostingPlan = model.HostingPlan(*plan)
	}
	return &s, nil
}

func nullPlan(p model.HostingPlan) *string {
	if p == model.HostingPlanNone {
		return nil
	}
	s := string(p)
	return &s
}
