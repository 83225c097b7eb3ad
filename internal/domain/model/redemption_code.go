package model

import (
	"strings"
	"time"
)

// RedemptionCode is a single-use prepaid code that credits a fixed package of
// credits to an agent's balance. Once IsRedeemed is true it never reverts.
type RedemptionCode struct {
	ID         string
	Code       string // normalized form: uppercase, no dashes
	PackageID  string
	IsRedeemed bool
	RedeemedBy *string
	RedeemedAt *time.Time
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}

// Expired reports whether the code's optional expiry has passed.
func (c *RedemptionCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// NormalizeCode converts user input to the stored form: whitespace and
// dashes stripped, uppercased. "inst-ab12-cd34-ef56" and "INSTAB12CD34EF56"
// compare equal.
func NormalizeCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case '-', ' ', '\t', '\n', '\r':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// FormatCode renders a normalized code for display: INST-XXXX-XXXX-XXXX.
// Codes in an unexpected shape are returned unchanged.
func FormatCode(code string) string {
	if len(code) != 16 || !strings.HasPrefix(code, "INST") {
		return code
	}
	return code[0:4] + "-" + code[4:8] + "-" + code[8:12] + "-" + code[12:16]
}
