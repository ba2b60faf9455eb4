package model

import "time"

// InviteCode grants its role in its family when redeemed. Codes are stored
// uppercase, are globally unique across all families for all time, and are
// retained after redemption for audit.
type InviteCode struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	FamilyID       int64      `json:"family_id"`
	Role           string     `json:"role"`
	CreatedBy      int64      `json:"created_by"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	RedeemCount    int        `json:"redeem_count"`
	LastRedeemedAt *time.Time `json:"last_redeemed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
