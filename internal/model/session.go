package model

import "time"

// Session carries an authenticated identity plus the active family the
// client last selected. FamilyID is a preference, never an authorization
// artifact — middleware revalidates it against memberships on every request.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	FamilyID  int64     `json:"family_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
