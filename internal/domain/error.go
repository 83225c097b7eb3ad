package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAgentNotFound       = errors.New("agent not found")
	ErrSiteNotFound        = errors.New("site not found")
	ErrCodeNotFound        = errors.New("redemption code not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrCodeAlreadyRedeemed = errors.New("redemption code already redeemed")
	ErrCodeExpired         = errors.New("redemption code expired")
	ErrMaxLiveSites        = errors.New("live site limit reached")
	ErrAlreadyLive         = errors.New("site is already live")
	ErrSitePaused          = errors.New("site is paused; resume instead of redeploying")
	ErrNotSiteOwner        = errors.New("site belongs to another agent")
	ErrInvalidPlan         = errors.New("invalid hosting plan")
	ErrTxConflict          = errors.New("transaction conflict; state changed since read")

	// Infrastructure-side errors surfaced through repositories.
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// InsufficientCreditsError carries the shortfall detail so callers can report
// required vs. available amounts. errors.Is(err, ErrInsufficientCredits)
// matches it.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}
