package model

import "time"

// TimeEntry records a caregiver shift. EndTime is nil while the shift is open.
type TimeEntry struct {
	ID        int64      `json:"id"`
	FamilyID  int64      `json:"family_id"`
	UserID    int64      `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PayRate is an hourly rate for one user in one family. The server stores
// and guards it; pay arithmetic happens elsewhere.
type PayRate struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	UserID      int64     `json:"user_id"`
	HourlyCents int64     `json:"hourly_cents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
