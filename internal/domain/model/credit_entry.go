package model

import "time"

// CreditEntry is one row of the append-only balance audit trail. Delta is
// negative for deductions and positive for grants; BalanceAfter snapshots the
// agent balance as committed by the same transaction.
type CreditEntry struct {
	ID           string
	AgentID      string
	Delta        int
	Reason       string
	BalanceAfter int
	CreatedAt    time.Time
}

// Ledger entry reasons used across the subsystem.
const (
	ReasonPreview   = "preview"
	ReasonAIEnhance = "ai_enhance"
	ReasonAIRefund  = "ai_refund"
	ReasonDeploy    = "deploy"
	ReasonHosting   = "hosting"
	ReasonResume    = "resume"
	ReasonRedeem    = "redeem"
)
