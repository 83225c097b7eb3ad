package model

import "time"

// CreditPackage is a static catalog entry: how many credits a prepaid code
// grants and what it sells for. Read-only from this subsystem's perspective.
type CreditPackage struct {
	ID         string
	Name       string
	Credits    int
	PriceCents int
	IsActive   bool
	CreatedAt  time.Time
}
