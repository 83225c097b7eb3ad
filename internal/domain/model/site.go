package model

import (
	"strings"
	"time"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"

	"github.com/google/uuid"
)

type SiteStatus string

const (
	SiteStatusPreview SiteStatus = "preview"
	SiteStatusLive    SiteStatus = "live"
	SiteStatusPaused  SiteStatus = "paused"
)

type HostingPlan string

const (
	HostingPlanNone    HostingPlan = ""
	HostingPlanMonthly HostingPlan = "monthly"
	HostingPlanAnnual  HostingPlan = "annual"
)

// ParseHostingPlan accepts the wire form (MONTHLY/ANNUAL, any case).
func ParseHostingPlan(s string) (HostingPlan, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return HostingPlanMonthly, nil
	case "annual":
		return HostingPlanAnnual, nil
	default:
		return HostingPlanNone, domain.ErrInvalidPlan
	}
}

// Period returns how long one paid hosting period lasts for the plan.
func (p HostingPlan) Period() time.Duration {
	switch p {
	case HostingPlanAnnual:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Site is a deployable website owned by an agent. It is created in Preview by
// the generation step and cycles Live <-> Paused afterwards; it is never
// deleted by this subsystem.
type Site struct {
	ID                   string
	AgentID              string
	Name                 string
	Status               SiteStatus
	HostingPlan          HostingPlan
	DeployedAt           *time.Time
	LastHostingChargedAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func NewSite(id, agentID, name string) (*Site, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if agentID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Site{
		ID:        id,
		AgentID:   agentID,
		Name:      name,
		Status:    SiteStatusPreview,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HostingDue reports whether a Live site's billing period has elapsed at now.
// A site that has never been charged is immediately due.
func (s *Site) HostingDue(now time.Time) bool {
	if s.Status != SiteStatusLive {
		return false
	}
	if s.LastHostingChargedAt == nil {
		return true
	}
	return now.Sub(*s.LastHostingChargedAt) > s.HostingPlan.Period()
}
